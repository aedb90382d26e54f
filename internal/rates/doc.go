// Package rates supplies exchange-rate tables to the currency normalizer.
//
// A Client fetches the latest rates for a base currency from an HTTP
// endpoint. Concurrent fetches for the same base share one request, results
// are cached for a configurable TTL, and outbound calls are throttled. For
// reproducible builds a rate table can instead be read from a YAML or JSON
// file with LoadRatesFile.
package rates
