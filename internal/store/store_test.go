package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ Repository = (*SettingsStore)(nil)

type fakeRedis struct {
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func sampleSettings() Settings {
	return Settings{
		Loans: []loans.Loan{
			{ID: "car", Name: "Car", Principal: 1000000, APR: 0.12, TermMonths: 12, AllowPrepay: loans.Bool(false)},
			{ID: "home", Name: "Home", Principal: 600000, APR: 0.06, TermMonths: 24, RepaymentType: loans.Bullet},
		},
		Strategy:     constants.StrategySnowball,
		ExtraBudget:  250000,
		LockTarget:   true,
		TargetLoanID: "home",
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	caches := map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  NewRedisCacheWithClient(newFakeRedis()),
	}

	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewSettingsStore(zap.NewNop(), cache, "test")

			want := sampleSettings()
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got := s.Load(ctx)

			if got.Strategy != want.Strategy || got.ExtraBudget != want.ExtraBudget ||
				got.LockTarget != want.LockTarget || got.TargetLoanID != want.TargetLoanID {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
			if len(got.Loans) != 2 || got.Loans[0].PrepayAllowed() || got.Loans[1].RepaymentType != loans.Bullet {
				t.Errorf("Load() loans = %+v", got.Loans)
			}

			if err := s.Reset(ctx); err != nil {
				t.Fatalf("Reset() error = %v", err)
			}
			reset := s.Load(ctx)
			if reset.Strategy != constants.StrategyAvalanche || reset.ExtraBudget != 0 || len(reset.Loans) != 0 || reset.Loans == nil {
				t.Errorf("Load() after Reset() = %+v, want defaults", reset)
			}
		})
	}
}

func TestSettingsKeys(t *testing.T) {
	cache := NewMemoryCache()
	s := NewSettingsStore(nil, cache, constants.DefaultStoragePrefix)
	if err := s.Save(context.Background(), sampleSettings()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	expected := map[string]string{
		"multi-loan-strategy":     `"snowball"`,
		"multi-loan-extra":        `250000`,
		"multi-loan-lockTarget":   `true`,
		"multi-loan-targetLoanId": `"home"`,
	}
	for key, want := range expected {
		got, ok, _ := cache.Get(context.Background(), key)
		if !ok || got != want {
			t.Errorf("key %s = %q (present=%v), want %q", key, got, ok, want)
		}
	}
	if _, ok, _ := cache.Get(context.Background(), "multi-loan-loans"); !ok {
		t.Errorf("key multi-loan-loans was not written")
	}
}

func TestLoadFallsBackOnCorruptValue(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache := NewMemoryCache()
	ctx := context.Background()
	s := NewSettingsStore(zap.New(core), cache, "p")

	_ = cache.Set(ctx, s.Key(KeyLoans), "{not json")
	_ = cache.Set(ctx, s.Key(KeyExtraBudget), "500")

	got := s.Load(ctx)
	if len(got.Loans) != 0 {
		t.Errorf("Load() loans = %+v, want default", got.Loans)
	}
	if got.ExtraBudget != 500 {
		t.Errorf("Load() extra = %v, want the intact value 500", got.ExtraBudget)
	}
	if logs.FilterMessage("failed to decode setting, using default").Len() != 1 {
		t.Errorf("expected one decode warning, got %v", logs.All())
	}
}

func TestBackendFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	s := NewSettingsStore(zap.New(core), NewRedisCacheWithClient(fake), "p")
	ctx := context.Background()

	got := s.Load(ctx)
	if got.Strategy != constants.StrategyAvalanche || len(got.Loans) != 0 {
		t.Errorf("Load() = %+v, want defaults", got)
	}
	if n := logs.FilterMessage("failed to read setting, using default").Len(); n != len(settingKeys) {
		t.Errorf("read warnings = %d, want %d", n, len(settingKeys))
	}

	if err := s.Save(ctx, sampleSettings()); err == nil {
		t.Errorf("Save() expected error from failing backend")
	}
	if n := logs.FilterMessage("failed to save setting").Len(); n != len(settingKeys) {
		t.Errorf("save warnings = %d, want %d", n, len(settingKeys))
	}

	if err := s.Reset(ctx); err == nil {
		t.Errorf("Reset() expected error from failing backend")
	}
}

func TestRedisCacheMissingKey(t *testing.T) {
	cache := NewRedisCacheWithClient(newFakeRedis())
	val, ok, err := cache.Get(context.Background(), "absent")
	if err != nil || ok || val != "" {
		t.Errorf("Get() = %q, %v, %v, want a clean miss", val, ok, err)
	}
	if err := cache.Del(context.Background()); err != nil {
		t.Errorf("Del() with no keys error = %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.StorageConfig
		wantNil   bool
		wantError bool
	}{
		{name: "Empty backend", cfg: config.StorageConfig{}, wantNil: true},
		{name: "None backend", cfg: config.StorageConfig{Backend: "none"}, wantNil: true},
		{name: "Memory backend", cfg: config.StorageConfig{Backend: "memory"}},
		{name: "Redis backend", cfg: config.StorageConfig{Backend: "Redis", Address: "localhost:6390"}},
		{name: "Unknown backend", cfg: config.StorageConfig{Backend: "etcd"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(zap.NewNop(), tt.cfg)
			if tt.wantError {
				if err == nil {
					t.Errorf("New() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if (s == nil) != tt.wantNil {
				t.Errorf("New() = %v, want nil=%v", s, tt.wantNil)
			}
			if s != nil && s.Key(KeyLoans) != constants.DefaultStoragePrefix+"-loans" {
				t.Errorf("Key() = %q, want default prefix", s.Key(KeyLoans))
			}
		})
	}
}
