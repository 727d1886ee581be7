// Package config defines the data structures related to configuration and
// includes functions for loading and processing a payoff plan.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"github.com/iwvelando/payoff-planner/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment variables that override configuration keys,
// e.g. PAYOFF_PLAN_EXTRABUDGET.
const EnvPrefix = "PAYOFF"

// Configuration holds all configuration for payoff-planner.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty" json:"output,omitempty"`
	Plan    PlanConfig    `yaml:"plan" json:"plan"`
	Loans   []loans.Loan  `yaml:"loans" json:"loans"`
	Storage StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv, json
	// FocusLoanID prints that loan's schedule after the summary.
	FocusLoanID string `yaml:"focusLoanId,omitempty" json:"focusLoanId,omitempty"`
}

// PlanConfig holds the strategy and budget choices of a plan.
type PlanConfig struct {
	Strategy     string         `yaml:"strategy" json:"strategy"`
	ExtraBudget  float64        `yaml:"extraBudget" json:"extraBudget"`
	LockTarget   bool           `yaml:"lockTarget" json:"lockTarget"`
	TargetLoanID string         `yaml:"targetLoanId,omitempty" json:"targetLoanId,omitempty"`
	StartDate    string         `yaml:"startDate,omitempty" json:"startDate,omitempty"`
	Optimize     OptimizeConfig `yaml:"optimize,omitempty" json:"optimize,omitempty"`
}

// OptimizeConfig asks for the smallest extra budget that pays the plan off
// within TargetMonths. MaxBudget bounds the search; zero derives a bound.
type OptimizeConfig struct {
	TargetMonths int     `yaml:"targetMonths,omitempty" json:"targetMonths,omitempty"`
	MaxBudget    float64 `yaml:"maxBudget,omitempty" json:"maxBudget,omitempty"`
}

// StorageConfig selects the settings repository.
type StorageConfig struct {
	Backend  string `yaml:"backend,omitempty" json:"backend,omitempty"` // none, memory, redis
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("plan.strategy", constants.StrategyAvalanche)
	v.SetDefault("plan.extraBudget", 0)
	v.SetDefault("storage.backend", constants.StorageBackendNone)
	v.SetDefault("storage.address", constants.DefaultRedisAddress)
	v.SetDefault("storage.prefix", constants.DefaultStoragePrefix)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ProcessLoans normalizes all loans in place so that generated ids and
// derived minimum payments stay stable for the rest of the run.
func (conf *Configuration) ProcessLoans(logger *zap.Logger) {
	conf.Loans = loans.Normalize(logger, conf.Loans)
}

// Strategy returns the configured payoff strategy.
func (conf *Configuration) Strategy() (payoff.Strategy, error) {
	return payoff.ParseStrategy(conf.Plan.Strategy)
}

// LockedTarget returns the locked target id, or "" when locking is off.
func (conf *Configuration) LockedTarget() string {
	if !conf.Plan.LockTarget {
		return ""
	}
	return strings.TrimSpace(conf.Plan.TargetLoanID)
}

// Options converts the plan section into simulation options.
func (conf *Configuration) Options() (payoff.Options, error) {
	strategy, err := conf.Strategy()
	if err != nil {
		return payoff.Options{}, err
	}
	return payoff.Options{
		Strategy:       strategy,
		ExtraBudget:    conf.Plan.ExtraBudget,
		LockedTargetID: conf.LockedTarget(),
		StartDate:      conf.Plan.StartDate,
	}, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Loans should already be processed.
func (conf *Configuration) ValidateConfiguration() []string {
	warnings := validation.ValidatePlan(validation.PlanInput{
		Loans:          conf.Loans,
		ExtraBudget:    conf.Plan.ExtraBudget,
		LockedTargetID: conf.LockedTarget(),
		StartDate:      conf.Plan.StartDate,
	})

	if len(conf.Loans) == 0 {
		warnings = append(warnings, "No loans configured")
	}
	if conf.Plan.LockTarget && conf.LockedTarget() == "" {
		warnings = append(warnings, "Target locking is enabled but no target loan id is set")
	}

	return warnings
}
