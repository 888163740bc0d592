// Package api hosts the HTTP server, middleware, and handlers of the profile
// delivery service. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/profiles to ingest a finished profile.
//   - /app_profiler/... served by the viewer middleware.
package api
