package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Check spans use the healthcheck.* namespace so they
// line up with the labels of the plus_monitoring gauge.
const (
	AttrService  = attribute.Key("healthcheck.service")
	AttrType     = attribute.Key("healthcheck.type")
	AttrFQDN     = attribute.Key("healthcheck.fqdn")
	AttrPort     = attribute.Key("healthcheck.port")
	AttrCheckID  = attribute.Key("healthcheck.check_id")
	AttrHealthy  = attribute.Key("healthcheck.healthy")
	AttrStage    = attribute.Key("healthcheck.stage")
	AttrDuration = attribute.Key("healthcheck.duration_ms")

	AttrRequestID  = attribute.Key("http.request_id")
	AttrMethod     = attribute.Key("http.request.method")
	AttrRoute      = attribute.Key("http.route")
	AttrStatusCode = attribute.Key("http.response.status_code")
)

// CheckAttributes describes the service a check span targets.
func CheckAttributes(service, typ, fqdn string, port int, checkID string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrService.String(service),
		AttrType.String(typ),
		AttrFQDN.String(fqdn),
		AttrPort.Int(port),
		AttrCheckID.String(checkID),
	)
}

// SetCheckResult records the outcome of a check on span.
func SetCheckResult(span trace.Span, healthy bool, stage string, durationMS float64) {
	attrs := []attribute.KeyValue{
		AttrHealthy.Bool(healthy),
		AttrDuration.Float64(durationMS),
	}
	if stage != "" {
		attrs = append(attrs, AttrStage.String(stage))
	}
	span.SetAttributes(attrs...)
}
