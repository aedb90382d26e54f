// Package services implements the business logic behind the dataset server.
// It keeps HTTP handlers free of pipeline details.
//
// # Available Services
//
//	- DatasetService: runs deck builds and serves the datasets of the last
//	  successful one
//	- HealthService: liveness, readiness and version reporting
//
// # Concurrency
//
// Concurrent rebuild requests share one build through singleflight. Readers
// always see the last successful build; a failed rebuild never replaces it.
//
// # Errors
//
// ErrNoBuild is returned until a build has succeeded. Unknown dataset ids
// return an apperrors NOT_FOUND error. Build failures keep the pipeline error
// type so handlers can map them to problem details.
package services
