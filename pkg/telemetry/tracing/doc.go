// Package tracing emits OpenTelemetry spans for health checks and API requests.
//
// Each check round of a service becomes one span named after the service type
// and carrying the same name/fqdn/port/type values as the plus_monitoring
// gauge, plus the failing stage. API requests get server spans that continue
// any W3C traceparent sent by the caller, and the trace ID is echoed in the
// X-Trace-ID response header.
//
// Spans are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector.observability:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.25
//
// With tracing disabled, Noop tracers are used and cost almost nothing.
package tracing
