// Package http implements the HTTP handlers of the dataset server.
// Handlers stay thin: they parse the request, call a service and render the
// result. Errors are rendered as RFC 7807 problem details by the shared
// ErrorHandler.
//
// # Routes
//
//	GET  /api/health               liveness summary
//	GET  /api/health/ready         ready once a build has succeeded
//	GET  /api/health/live          runtime details
//	GET  /api/version              version and build information
//	GET  /api/datasets             datasets of the last successful build
//	GET  /api/datasets/{id}        one dataset, ?format=json (default) or csv
//	POST /api/builds               run a build (concurrent calls share one)
//	GET  /api/builds/latest        summary of the most recent build attempt
//
// Each handler exposes Routes() returning a chi.Router to be mounted by the
// application router.
package http
