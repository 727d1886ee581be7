package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/optimizer"
	"github.com/iwvelando/payoff-planner/internal/plan"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/iwvelando/payoff-planner/pkg/output"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	settings    store.Repository
}

// NewHandler constructs the HTTP handler that serves the payoff API. A nil
// settings repository disables the settings endpoints.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, settings store.Repository) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion, settings: settings}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/simulate", h.handleSimulate)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/export", h.handleExport)
	mux.HandleFunc("/api/export/config", h.handleConfigExport)
	mux.HandleFunc("/api/optimize", h.handleOptimize)
	mux.HandleFunc("/api/settings", h.handleSettings)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

// planRequest is the body shared by the plan endpoints. TargetMonths and
// MaxBudget override plan.optimize for /api/optimize.
type planRequest struct {
	Plan         config.PlanConfig `json:"plan"`
	Loans        []loans.Loan      `json:"loans"`
	TargetMonths int               `json:"targetMonths,omitempty"`
	MaxBudget    float64           `json:"maxBudget,omitempty"`
}

func (p planRequest) configuration() config.Configuration {
	return config.Configuration{Plan: p.Plan, Loans: p.Loans}
}

type simulateResponse struct {
	Loans    []loans.Loan         `json:"loans"`
	Summary  payoff.Summary       `json:"summary"`
	Result   payoff.Result        `json:"result"`
	Series   []payoff.SeriesPoint `json:"series"`
	Warnings []string             `json:"warnings,omitempty"`
	Duration string               `json:"duration"`
}

type compareEntry struct {
	Strategy payoff.Strategy `json:"strategy"`
	Summary  payoff.Summary  `json:"summary"`
}

type compareResponse struct {
	Plans    []compareEntry `json:"plans"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	req, ok := h.decodePlan(w, r, op)
	if !ok {
		return
	}

	p, err := plan.GetPlan(h.logger, req.configuration())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("payoff simulated",
		zap.String("op", op),
		zap.Int("loans", len(p.Loans)),
		zap.Int("months", p.Summary.PayoffMonths),
		zap.Bool("converged", p.Summary.Converged),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, simulateResponse{
		Loans:    p.Loans,
		Summary:  p.Summary,
		Result:   p.Result,
		Series:   payoff.Flatten(p.Result.Months),
		Warnings: p.Warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	req, ok := h.decodePlan(w, r, op)
	if !ok {
		return
	}

	plans, err := plan.ComparePlans(h.logger, req.configuration())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	response := compareResponse{Plans: make([]compareEntry, 0, len(plans))}
	for _, p := range plans {
		response.Plans = append(response.Plans, compareEntry{Strategy: p.Options.Strategy, Summary: p.Summary})
		response.Warnings = p.Warnings
	}
	response.Duration = time.Since(start).String()

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodePlan(w, r, op)
	if !ok {
		return
	}

	p, err := plan.GetPlan(h.logger, req.configuration())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": constants.ExportFileName,
	}))
	w.WriteHeader(http.StatusOK)
	if err := output.CsvFormat(w, p.Result); err != nil {
		h.logger.Error("failed to write CSV export", zap.String("op", op), zap.Error(err))
	}
}

// handleConfigExport returns the plan as a configuration file the CLI can run.
func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodePlan(w, r, op)
	if !ok {
		return
	}

	conf := req.configuration()
	if conf.Loans == nil {
		conf.Loans = []loans.Loan{}
	}
	yamlBytes, err := yaml.Marshal(conf)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodePlan(w, r, op)
	if !ok {
		return
	}

	targetMonths := req.Plan.Optimize.TargetMonths
	if req.TargetMonths > 0 {
		targetMonths = req.TargetMonths
	}
	maxBudget := req.Plan.Optimize.MaxBudget
	if req.MaxBudget > 0 {
		maxBudget = req.MaxBudget
	}
	if targetMonths <= 0 {
		h.respondError(w, http.StatusBadRequest, "targetMonths must be a positive number of months", op)
		return
	}

	conf := req.configuration()
	runner, err := optimizer.NewRunnerFromConfiguration(h.logger, &conf)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to initialize optimizer: %v", err), op)
		return
	}

	summary, err := runner.MinimumExtraBudget(targetMonths, maxBudget)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("optimizer execution failed: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSettings"
	if h.settings == nil {
		h.respondError(w, http.StatusNotFound, "settings storage is disabled", op)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, http.StatusOK, h.settings.Load(r.Context()))
	case http.MethodPut:
		var settings store.Settings
		if !h.decodeJSON(w, r, &settings, op) {
			return
		}
		if _, err := payoff.ParseStrategy(settings.Strategy); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		if settings.Strategy == "" {
			settings.Strategy = constants.StrategyAvalanche
		}
		if err := h.settings.Save(r.Context(), settings); err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save settings: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, h.settings.Load(r.Context()))
	case http.MethodDelete:
		if err := h.settings.Reset(r.Context()); err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to reset settings: %v", err), op)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodePlan reads a plan request. YAML bodies are read like a configuration
// file; everything else is decoded as JSON.
func (h *handler) decodePlan(w http.ResponseWriter, r *http.Request, op string) (planRequest, bool) {
	var req planRequest
	if !isYAML(r.Header.Get("Content-Type")) {
		return req, h.decodeJSON(w, r, &req, op)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	conf, err := config.LoadConfigurationFromReader(r.Body)
	if err != nil {
		if status, msg := bodyError(err, h.maxBodySize); status != 0 {
			h.respondError(w, status, msg, op)
			return req, false
		}
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return req, false
	}
	req.Plan = conf.Plan
	req.Loans = conf.Loans
	return req, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if status, msg := bodyError(err, h.maxBodySize); status != 0 {
			h.respondError(w, status, msg, op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func bodyError(err error, limit int64) (int, string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds limit of %d bytes", limit)
	}
	if errors.Is(err, io.EOF) {
		return http.StatusBadRequest, "request body is empty"
	}
	return 0, ""
}

func isYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasSuffix(mediaType, "yaml") || strings.HasSuffix(mediaType, "yml")
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("payoff request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
