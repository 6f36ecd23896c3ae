// Package telemetry groups the exporter's own observability.
//
//   - logging: slog-based structured logging with credential redaction
//   - metrics: the plus_monitoring Prometheus series
//   - tracing: OpenTelemetry spans for checks and API requests
//   - health: /health, /ready and /version handlers
//
// The packages are independent; cmd/general-healthcheck wires them together.
package telemetry
