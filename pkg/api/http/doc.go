// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Health checks (GET /health)
//   - Item creation, lookup and completion (/items)
//   - Prometheus metrics (GET /metrics)
//
// Registry errors map to 409 (duplicate id) and 404 (unknown id); malformed
// requests are rejected with 422 before reaching the registry.
package http
