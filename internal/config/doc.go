// Package config provides configuration management for avdeck.
// It loads the application configuration and the deck manifest, validates
// both, and resolves every file location from a single base directory.
//
// # Configuration Sources
//
// Configuration is assembled in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default() values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern AVDECK_<SECTION>_<FIELD>:
//
//	AVDECK_SERVER_PORT=8080
//	AVDECK_LOGGING_LEVEL=debug
//	AVDECK_RATES_ENDPOINT=https://api.frankfurter.app/latest
//	AVDECK_PROCESSING_COERCION_POLICY=null_on_error
//
// AVDECK_CONFIG names the configuration file explicitly.
//
// # Deck Manifest
//
// The manifest names every tabular source of the deck:
//
//	name: aviation-2019
//	parameters:
//	  analysis_year: 2019
//	  window_start: 2019-06-01
//	  window_end: 2019-08-31
//	  top_n: 10
//	sources:
//	  traffic:
//	    kind: xlsx
//	    path: airport_traffic_2019.xlsx
//	    sheet: DATA
//	  ansp_finance:
//	    kind: csv
//	    path: ansp_finance.csv
//	    delimiter: ";"
//
// Relative source paths resolve against the manifest's directory.
package config
