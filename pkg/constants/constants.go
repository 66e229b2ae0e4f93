// Package constants provides shared constants for the noi-analyzer application.
package constants

import "time"

// PeriodLayout is the canonical period label format, e.g. 2025-03.
const PeriodLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CurrencyPlaces is the number of decimal places kept for currency output.
	CurrencyPlaces = 2

	// PercentPlaces is the number of decimal places kept for percent changes.
	PercentPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// NotApplicable marks values that cannot be computed.
	NotApplicable = "N/A"
)

// Validation constants
const (
	// NOIDiscrepancyTolerance is how far a reported NOI may drift from
	// EGI - OpEx before a warning is raised (one dollar).
	NOIDiscrepancyTolerance = "1.00"

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = "0.01"
)

// NOI margin bands used by the commentary generator, in percent.
const (
	MarginExcellent = 65
	MarginStrong    = 55
	MarginStandard  = 45
)

// MaxRecommendations caps the number of recommendations in generated commentary.
const MaxRecommendations = 5

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default comparison input file name
	DefaultConfigFile = "noi.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides of the comparison file.
	EnvPrefix = "NOI"

	// EnvAPIKey overrides the server API key.
	EnvAPIKey = "NOI_API_KEY"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for comparison documents (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimitRequests is the default number of requests allowed per window and client IP.
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the default rate limit window.
	DefaultRateLimitWindow = time.Minute

	// DefaultBatchConcurrency bounds parallel comparisons in a batch.
	DefaultBatchConcurrency = 4

	// MaxBatchItems caps the number of properties in a batch request.
	MaxBatchItems = 50
)
