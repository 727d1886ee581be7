// Package constants provides shared constants for the payoff-planner application.
package constants

// DateTimeLayout is the format accepted for a plan start date and is also the
// calendar label format for simulated months.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// BalanceEpsilon is the balance (one currency unit) at or below which a
	// loan is treated as fully paid.
	BalanceEpsilon = 1.0

	// MaxSimulationMonths caps the number of simulated months. Reaching it
	// means the plan did not converge.
	MaxSimulationMonths = 1200

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Strategy names
const (
	// StrategyAvalanche orders loans by highest APR first
	StrategyAvalanche = "avalanche"

	// StrategySnowball orders loans by smallest balance first
	StrategySnowball = "snowball"
)

// Repayment types
const (
	// RepaymentAmortized is a fixed installment loan
	RepaymentAmortized = "amortized"

	// RepaymentBullet pays interest only and the full principal at maturity
	RepaymentBullet = "bullet"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV export format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the flattened time series as JSON
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// ExportFileName is the attachment name used for CSV downloads
	ExportFileName = "loan_simulation_detail.csv"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Storage defaults
const (
	// StorageBackendNone disables settings persistence
	StorageBackendNone = "none"

	// StorageBackendMemory keeps settings in process memory
	StorageBackendMemory = "memory"

	// StorageBackendRedis keeps settings in Redis
	StorageBackendRedis = "redis"

	// DefaultStoragePrefix prefixes every settings key
	DefaultStoragePrefix = "multi-loan"

	// DefaultRedisAddress is the default Redis address
	DefaultRedisAddress = "localhost:6379"
)
