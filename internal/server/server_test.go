package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/output"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"go.uber.org/zap"
)

type decodedSimulate struct {
	Loans    []map[string]interface{} `json:"loans"`
	Summary  payoff.Summary           `json:"summary"`
	Series   []map[string]interface{} `json:"series"`
	Warnings []string                 `json:"warnings"`
	Duration string                   `json:"duration"`
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"plan": map[string]interface{}{
			"strategy":    "snowball",
			"extraBudget": 100000,
		},
		"loans": []map[string]interface{}{
			{"id": "a", "name": "A", "principal": 1000000, "apr": 0.12, "termMonths": 12},
			{"id": "b", "name": "B", "principal": 300000, "apr": 0.2, "termMonths": 24},
		},
	}
}

func TestHandleSimulateSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/simulate", samplePayload())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp decodedSimulate
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Summary.Converged {
		t.Fatal("expected the plan to converge")
	}
	if resp.Summary.Strategy != payoff.Snowball {
		t.Fatalf("expected snowball strategy, got %s", resp.Summary.Strategy)
	}
	if len(resp.Series) != resp.Summary.PayoffMonths {
		t.Fatalf("expected %d series points, got %d", resp.Summary.PayoffMonths, len(resp.Series))
	}
	if _, ok := resp.Series[0]["byLoanBalance.a"]; !ok {
		t.Fatalf("expected flattened per-loan keys, got %v", resp.Series[0])
	}
	if _, ok := resp.Loans[0]["minPay"]; !ok {
		t.Fatal("expected normalized loans with minPay in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleSimulateYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp decodedSimulate
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Loans) != 4 {
		t.Fatalf("expected 4 loans, got %d", len(resp.Loans))
	}
	if resp.Series[0]["label"] != "2025-01" {
		t.Fatalf("expected calendar labels, got %v", resp.Series[0]["label"])
	}
}

func TestHandleSimulateErrors(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 512, "", nil)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{name: "Wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{name: "Malformed JSON", method: http.MethodPost, body: "{", status: http.StatusBadRequest},
		{name: "Empty body", method: http.MethodPost, body: "", status: http.StatusBadRequest},
		{name: "Unknown strategy", method: http.MethodPost, body: `{"plan":{"strategy":"random"},"loans":[]}`, status: http.StatusBadRequest},
		{name: "Body too large", method: http.MethodPost, body: `{"loans":[` + strings.Repeat(`{"name":"x"},`, 100) + `{}]}`, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/simulate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleCompare(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/compare", samplePayload())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp compareResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(resp.Plans))
	}
	if resp.Plans[0].Strategy != payoff.Avalanche || resp.Plans[1].Strategy != payoff.Snowball {
		t.Fatalf("unexpected strategy order %s, %s", resp.Plans[0].Strategy, resp.Plans[1].Strategy)
	}
}

func TestHandleExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/export", samplePayload())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, constants.ExportFileName) {
		t.Fatalf("expected attachment filename, got %q", cd)
	}

	body := rr.Body.String()
	if !strings.HasPrefix(body, output.ByteOrderMark) {
		t.Fatal("expected CSV to start with a byte-order mark")
	}
	header := strings.SplitN(strings.TrimPrefix(body, output.ByteOrderMark), "\n", 2)[0]
	for _, column := range []string{"A_principal", "A_interest", "A_balance", "B_balance"} {
		if !strings.Contains(header, column) {
			t.Fatalf("expected column %s in header %q", column, header)
		}
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/export/config", samplePayload())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["configYaml"] == "" {
		t.Fatal("expected config YAML in response")
	}

	// The exported file must load back into the same plan.
	conf, err := config.LoadConfigurationFromReader(strings.NewReader(resp["configYaml"]))
	if err != nil {
		t.Fatalf("exported YAML does not load: %v", err)
	}
	if conf.Plan.Strategy != "snowball" || conf.Plan.ExtraBudget != 100000 || len(conf.Loans) != 2 {
		t.Fatalf("exported config lost data: %+v", conf)
	}
	if conf.Loans[1].APR != 0.2 || conf.Loans[1].TermMonths != 24 {
		t.Fatalf("exported loan mismatch: %+v", conf.Loans[1])
	}
}

func TestHandleOptimize(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	payload := samplePayload()
	payload["targetMonths"] = 6
	rr := performJSON(t, handler, http.MethodPost, "/api/optimize", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp optimization.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Converged || resp.PayoffMonths > 6 || resp.Value <= 0 {
		t.Fatalf("unexpected optimization summary %+v", resp)
	}

	delete(payload, "targetMonths")
	rr = performJSON(t, handler, http.MethodPost, "/api/optimize", payload)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without target months, got %d", rr.Code)
	}
}

func TestHandleSettings(t *testing.T) {
	repo := store.NewSettingsStore(zap.NewNop(), store.NewMemoryCache(), "test")
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", repo)

	rr := performJSON(t, handler, http.MethodGet, "/api/settings", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var loaded store.Settings
	if err := json.Unmarshal(rr.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if loaded.Strategy != constants.StrategyAvalanche {
		t.Fatalf("expected default strategy, got %q", loaded.Strategy)
	}

	put := map[string]interface{}{
		"loans":        samplePayload()["loans"],
		"strategy":     "snowball",
		"extraBudget":  500,
		"lockTarget":   true,
		"targetLoanId": "b",
	}
	rr = performJSON(t, handler, http.MethodPut, "/api/settings", put)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	saved := repo.Load(context.Background())
	if saved.Strategy != "snowball" || saved.ExtraBudget != 500 || !saved.LockTarget || len(saved.Loans) != 2 {
		t.Fatalf("settings not persisted: %+v", saved)
	}

	put["strategy"] = "random"
	rr = performJSON(t, handler, http.MethodPut, "/api/settings", put)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown strategy, got %d", rr.Code)
	}

	rr = performJSON(t, handler, http.MethodDelete, "/api/settings", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if reset := repo.Load(context.Background()); len(reset.Loans) != 0 || reset.Strategy != constants.StrategyAvalanche {
		t.Fatalf("settings not reset: %+v", reset)
	}

	rr = performJSON(t, handler, http.MethodPost, "/api/settings", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

type failingRepository struct{}

func (failingRepository) Load(context.Context) store.Settings { return store.DefaultSettings() }

func (failingRepository) Save(context.Context, store.Settings) error {
	return errors.New("backend down")
}

func (failingRepository) Reset(context.Context) error { return errors.New("backend down") }

func TestHandleSettingsFailures(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", failingRepository{})

	rr := performJSON(t, handler, http.MethodPut, "/api/settings", map[string]interface{}{"strategy": "avalanche"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	rr = performJSON(t, handler, http.MethodDelete, "/api/settings", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestHandleSettingsDisabled(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "", nil)

	rr := performJSON(t, handler, http.MethodGet, "/api/settings", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{version: "", want: "dev"},
		{version: " v1.2.3 ", want: "v1.2.3"},
	}

	for _, tt := range tests {
		handler := NewHandler(nil, 0, tt.version, nil)
		rr := performJSON(t, handler, http.MethodGet, "/api/version", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["version"] != tt.want {
			t.Fatalf("expected version %q, got %q", tt.want, resp["version"])
		}
	}
}

func performJSON(t *testing.T, handler http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
