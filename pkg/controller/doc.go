// Package controller contains HTTP middlewares used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds permissive CORS headers and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithMetrics: Counts requests and records their latency on an OpenTelemetry meter.
package controller
