// Package observability groups the portal's telemetry: slog-based logging in
// logging, Prometheus collectors in metrics and OpenTelemetry spans in tracing.
// Every binary sets up logging first; the api adds tracing and HTTP metrics,
// the worker serves its own /metrics endpoint.
package observability
