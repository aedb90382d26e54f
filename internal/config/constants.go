package config

import (
	"time"

	"avdeck/pkg/contracts"
)

// Application constants
const (
	AppName    = "avdeck"
	AppVersion = contracts.Version
	EnvPrefix  = "AVDECK"

	// Coercion policies
	PolicyFailFast    = "fail_fast"
	PolicyNullOnError = "null_on_error"

	DefaultReferenceCurrency = "EUR"
	DefaultRatesEndpoint     = "https://api.frankfurter.app/latest"

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Network Timeouts
	DefaultHTTPTimeout  = 10 * time.Second
	DefaultBuildTimeout = 5 * time.Minute

	// Cache Settings
	RatesCacheDuration = 1 * time.Hour

	// File Paths (relative to the base directory)
	DefaultDataDir         = "data"
	DefaultReportsDir      = "data/reports"
	DefaultLogsDir         = "logs"
	DefaultLogFile         = "logs/avdeck.log"
	DefaultManifestFile    = "deck.yaml"
	DefaultCredentialsFile = "credentials.json"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Export
	WorkbookFileName = "deck.xlsx"

	// API Endpoints
	APIBasePath      = "/api"
	HealthEndpoint   = "/api/health"
	DatasetsEndpoint = "/api/datasets"
	BuildsEndpoint   = "/api/builds"
	MetricsEndpoint  = "/metrics"
)
