// Package app assembles the avdeck dataset server.
//
// NewApplication loads configuration, initialises the slog logger and the
// OpenTelemetry providers, wires the aviation deck (source loader,
// exchange-rate source, runner) into a DatasetService and mounts the HTTP
// routes:
//
//	GET  /api/health[/ready|/live]
//	GET  /api/version
//	GET  /api/datasets
//	GET  /api/datasets/{id}?format=json|csv
//	POST /api/builds
//	GET  /api/builds/latest
//	GET  /metrics
//
// Run performs the initial build in the background, serves until SIGINT or
// SIGTERM and then shuts the server down gracefully. Datasets answer 503
// until the first build succeeds.
package app
