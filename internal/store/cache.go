// Package store persists planner settings between sessions in a key-value
// cache. Each setting lives under its own key so one corrupt value never costs
// the others.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"go.uber.org/zap"
)

// Cache is the key-value backend behind a SettingsStore. Get reports a missing
// key with ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// New builds the settings store selected by cfg. The "none" backend returns a
// nil store and no error.
func New(logger *zap.Logger, cfg config.StorageConfig) (*SettingsStore, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = constants.DefaultStoragePrefix
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", constants.StorageBackendNone:
		return nil, nil
	case constants.StorageBackendMemory:
		return NewSettingsStore(logger, NewMemoryCache(), prefix), nil
	case constants.StorageBackendRedis:
		address := cfg.Address
		if address == "" {
			address = constants.DefaultRedisAddress
		}
		return NewSettingsStore(logger, NewRedisCache(address, cfg.Password, cfg.DB), prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q, expected %s, %s or %s",
			cfg.Backend, constants.StorageBackendNone, constants.StorageBackendMemory, constants.StorageBackendRedis)
	}
}
