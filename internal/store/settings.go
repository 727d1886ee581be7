package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"go.uber.org/zap"
)

// Key suffixes, joined to the store prefix with a dash.
const (
	KeyLoans        = "loans"
	KeyStrategy     = "strategy"
	KeyExtraBudget  = "extra"
	KeyLockTarget   = "lockTarget"
	KeyTargetLoanID = "targetLoanId"
)

var settingKeys = []string{KeyLoans, KeyStrategy, KeyExtraBudget, KeyLockTarget, KeyTargetLoanID}

// Settings is the persisted state of a planning session.
type Settings struct {
	Loans        []loans.Loan `json:"loans"`
	Strategy     string       `json:"strategy"`
	ExtraBudget  float64      `json:"extraBudget"`
	LockTarget   bool         `json:"lockTarget"`
	TargetLoanID string       `json:"targetLoanId"`
}

// DefaultSettings is what Load returns for keys that were never saved.
func DefaultSettings() Settings {
	return Settings{
		Loans:    []loans.Loan{},
		Strategy: constants.StrategyAvalanche,
	}
}

// Repository loads and saves planner settings.
type Repository interface {
	Load(ctx context.Context) Settings
	Save(ctx context.Context, settings Settings) error
	Reset(ctx context.Context) error
}

// SettingsStore reads and writes Settings through a Cache.
type SettingsStore struct {
	logger *zap.Logger
	cache  Cache
	prefix string
}

// NewSettingsStore creates a store whose keys start with prefix.
func NewSettingsStore(logger *zap.Logger, cache Cache, prefix string) *SettingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsStore{logger: logger, cache: cache, prefix: prefix}
}

// Key returns the full cache key of a setting.
func (s *SettingsStore) Key(name string) string {
	return s.prefix + "-" + name
}

// Load returns the saved settings. A key that is missing, unreadable or holds
// a value that does not decode falls back to its default; the latter two are
// logged as warnings.
func (s *SettingsStore) Load(ctx context.Context) Settings {
	defaults := DefaultSettings()
	settings := Settings{
		Loans:        get(ctx, s, KeyLoans, defaults.Loans),
		Strategy:     get(ctx, s, KeyStrategy, defaults.Strategy),
		ExtraBudget:  get(ctx, s, KeyExtraBudget, defaults.ExtraBudget),
		LockTarget:   get(ctx, s, KeyLockTarget, defaults.LockTarget),
		TargetLoanID: get(ctx, s, KeyTargetLoanID, defaults.TargetLoanID),
	}
	if settings.Loans == nil {
		settings.Loans = []loans.Loan{}
	}
	return settings
}

// Save writes every setting. Failed keys are logged and reported together;
// the remaining keys are still written.
func (s *SettingsStore) Save(ctx context.Context, settings Settings) error {
	if settings.Loans == nil {
		settings.Loans = []loans.Loan{}
	}
	return errors.Join(
		s.set(ctx, KeyLoans, settings.Loans),
		s.set(ctx, KeyStrategy, settings.Strategy),
		s.set(ctx, KeyExtraBudget, settings.ExtraBudget),
		s.set(ctx, KeyLockTarget, settings.LockTarget),
		s.set(ctx, KeyTargetLoanID, settings.TargetLoanID),
	)
}

// Reset removes every setting so the next Load returns defaults.
func (s *SettingsStore) Reset(ctx context.Context) error {
	keys := make([]string, len(settingKeys))
	for i, name := range settingKeys {
		keys[i] = s.Key(name)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("failed to reset settings",
			zap.String("op", "store.Reset"),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}

func get[T any](ctx context.Context, s *SettingsStore, name string, fallback T) T {
	key := s.Key(name)
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read setting, using default",
			zap.String("op", "store.Load"),
			zap.String("key", key),
			zap.Error(err),
		)
		return fallback
	}
	if !ok {
		return fallback
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		s.logger.Warn("failed to decode setting, using default",
			zap.String("op", "store.Load"),
			zap.String("key", key),
			zap.Error(err),
		)
		return fallback
	}
	return value
}

func (s *SettingsStore) set(ctx context.Context, name string, value interface{}) error {
	key := s.Key(name)
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, string(encoded)); err != nil {
		s.logger.Warn("failed to save setting",
			zap.String("op", "store.Save"),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
