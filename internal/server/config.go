package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/logging"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"gopkg.in/yaml.v3"
)

// sizeUnits maps accepted size suffixes to their multiplier.
var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
}

// ByteSize is a byte count written in YAML as a plain number or with a
// K or M suffix.
type ByteSize int64

// UnmarshalYAML parses scalars such as 4096, 256K or 2MB.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	size, err := ParseSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = ByteSize(size)
	return nil
}

// MarshalYAML writes the size with the largest exact unit.
func (b ByteSize) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b ByteSize) String() string {
	switch {
	case b > 0 && b%(1<<20) == 0:
		return fmt.Sprintf("%dM", b>>20)
	case b > 0 && b%(1<<10) == 0:
		return fmt.Sprintf("%dK", b>>10)
	default:
		return strconv.FormatInt(int64(b), 10)
	}
}

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address     string               `yaml:"address"`
	MaxBodySize ByteSize             `yaml:"maxBodySize"`
	Logging     config.LoggingConfig `yaml:"logging"`
	Storage     config.StorageConfig `yaml:"storage"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Address:     constants.DefaultServerAddress,
		MaxBodySize: ByteSize(constants.DefaultMaxBodySizeBytes),
		Storage:     config.StorageConfig{Prefix: constants.DefaultStoragePrefix},
	}
}

// LoadConfig reads the server configuration from a YAML file. A missing path
// or file yields the defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return int64(c.MaxBodySize)
}

// applyDefaults fills values that an explicit but empty key left unset.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = ByteSize(constants.DefaultMaxBodySizeBytes)
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = constants.DefaultStoragePrefix
	}
}

// Validate reports every logging and storage setting the server cannot start
// with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "", constants.StorageBackendNone, constants.StorageBackendMemory, constants.StorageBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.DB < 0 {
		errs = append(errs, fmt.Errorf("storage db must not be negative, got %d", c.Storage.DB))
	}
	return errors.Join(errs...)
}

// ParseSize converts a byte string such as "256K" or "10M" into bytes. An
// empty string yields the default body limit.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool { return !unicode.IsDigit(r) })
	if split == -1 {
		split = len(trimmed)
	}
	if split == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(trimmed[:split], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	unit := strings.TrimSpace(trimmed[split:])
	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}
	if n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
