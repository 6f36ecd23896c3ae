package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"plus-monitoring/general-healthcheck/pkg/telemetry/logging"

	"go.opentelemetry.io/otel/trace"
)

const parentTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

func TestExtractInject(t *testing.T) {
	in := http.Header{}
	in.Set("traceparent", "00-"+parentTraceID+"-00f067aa0ba902b7-01")

	ctx := Extract(context.Background(), in)
	if got := TraceID(ctx); got != parentTraceID {
		t.Fatalf("TraceID() = %q, want %q", got, parentTraceID)
	}

	out := http.Header{}
	Inject(ctx, out)
	if out.Get("traceparent") != in.Get("traceparent") {
		t.Errorf("traceparent = %q, want %q", out.Get("traceparent"), in.Get("traceparent"))
	}
}

func TestHTTPMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		if !trace.SpanFromContext(r.Context()).IsRecording() {
			t.Error("handler context has no recording span")
		}
		if logging.GetTraceID(r.Context()) != TraceID(r.Context()) {
			t.Error("trace ID not stored for context logging")
		}
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		traceparent string
		wantParent  bool
	}{
		{name: "new trace"},
		{name: "continued trace", traceparent: "00-" + parentTraceID + "-00f067aa0ba902b7-01", wantParent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sr := newRecorded(t, SamplerAlways, 0)
			h := tr.HTTPMiddleware(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			req = req.WithContext(logging.WithRequestID(req.Context(), "req-1"))
			if tt.traceparent != "" {
				req.Header.Set("traceparent", tt.traceparent)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			ended := sr.Ended()
			if len(ended) != 1 {
				t.Fatalf("recorded %d spans, want 1", len(ended))
			}
			span := ended[0]

			if span.Name() != "GET /api/v1/status" {
				t.Errorf("Name() = %q", span.Name())
			}
			if span.SpanKind() != trace.SpanKindServer {
				t.Errorf("SpanKind() = %v", span.SpanKind())
			}
			attrs := attrMap(span)
			if attrs[AttrStatusCode].AsInt64() != http.StatusTeapot {
				t.Errorf("status attribute = %v", attrs[AttrStatusCode])
			}
			if attrs[AttrRequestID].AsString() != "req-1" {
				t.Errorf("request id attribute = %v", attrs[AttrRequestID])
			}

			traceID := span.SpanContext().TraceID().String()
			if rec.Header().Get(TraceIDHeader) != traceID {
				t.Errorf("%s = %q, want %q", TraceIDHeader, rec.Header().Get(TraceIDHeader), traceID)
			}
			if (traceID == parentTraceID) != tt.wantParent {
				t.Errorf("trace ID %s, continued = %v", traceID, tt.wantParent)
			}
		})
	}
}

func TestHTTPMiddleware_Noop(t *testing.T) {
	h := Noop().HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("traceparent", "00-"+parentTraceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(TraceIDHeader); got != parentTraceID {
		t.Errorf("%s = %q, want the caller's trace ID", TraceIDHeader, got)
	}
}
