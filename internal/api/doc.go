// Package api hosts the optional operator HTTP server for a run. Routes:
//   - GET /healthz and /readyz for health checks.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/progress for a JSON snapshot of the running pipeline.
package api
