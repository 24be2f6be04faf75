// Package api hosts the read-only HTTP server consumed by the display layer.
// Notable routes:
//   - GET /jobs.json for the full stored listing array.
//   - GET /api/listings for filtered, paginated listings.
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//
// Nothing in this package writes to the store.
package api
