package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupExporter installs an in-memory exporter as the global tracer
// provider and restores a fresh provider when the test ends. The package
// tracer is re-resolved so spans land in this exporter.
func setupExporter(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("pazpaz")
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})
	return exporter, tp
}

// traceRequest sends one request with the given status handler through the
// middleware and returns the recorder.
func traceRequest(path string, status int, traceparent string) *httptest.ResponseRecorder {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	req := httptest.NewRequest("GET", path, nil)
	if traceparent != "" {
		req.Header.Set("traceparent", traceparent)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func flushedSpans(t *testing.T, exporter *tracetest.InMemoryExporter, tp *sdktrace.TracerProvider) tracetest.SpanStubs {
	t.Helper()
	_ = tp.ForceFlush(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	return spans
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := setupExporter(t)

	traceRequest("/appointments", http.StatusOK, "")

	span := flushedSpans(t, exporter, tp)[0]
	if span.Name != "GET /appointments" {
		t.Errorf("expected span name 'GET /appointments', got '%s'", span.Name)
	}

	want := map[string]string{
		"http.method":      "GET",
		"http.path":        "/appointments",
		"http.status_code": "200",
	}
	for _, attr := range span.Attributes {
		key := string(attr.Key)
		expected, ok := want[key]
		if !ok {
			continue
		}
		if got := attr.Value.Emit(); got != expected {
			t.Errorf("attribute %s: expected %s, got %s", key, expected, got)
		}
		delete(want, key)
	}
	for key := range want {
		t.Errorf("attribute %s not found on span", key)
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	setupExporter(t)

	rr := traceRequest("/clients", http.StatusOK, "")

	traceID := rr.Header().Get("X-Trace-Id")
	if traceID == "" {
		t.Fatal("X-Trace-Id header not found in response")
	}
	// Trace IDs are 16 bytes rendered as hex.
	if len(traceID) != 32 {
		t.Errorf("expected trace ID length 32, got %d", len(traceID))
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := setupExporter(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	const incomingTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	traceRequest("/sessions", http.StatusOK,
		"00-"+incomingTraceID+"-00f067aa0ba902b7-01")

	span := flushedSpans(t, exporter, tp)[0]
	if got := span.SpanContext.TraceID().String(); got != incomingTraceID {
		t.Errorf("expected trace ID %s, got %s", incomingTraceID, got)
	}
}

func TestMiddleware_ErrorAttribute(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantError bool
	}{
		{"5xx marks span as error", "/appointments", http.StatusInternalServerError, true},
		{"4xx is a client problem, not an error", "/clients/missing", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, tp := setupExporter(t)

			traceRequest(tt.path, tt.status, "")

			span := flushedSpans(t, exporter, tp)[0]
			foundError := false
			for _, attr := range span.Attributes {
				if attr.Key == "error" && attr.Value.AsBool() {
					foundError = true
				}
			}
			if foundError != tt.wantError {
				t.Errorf("error attribute present=%v, want %v", foundError, tt.wantError)
			}
		})
	}
}

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	if rw.statusCode != http.StatusOK {
		t.Errorf("expected default status code 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusCreated)
	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected status code 201, got %d", rw.statusCode)
	}
}
