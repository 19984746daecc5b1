package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Shared tracer for all pazpaz spans. Resolved through the global
// provider, so tests can swap the provider and re-resolve.
var tracer = otel.Tracer("pazpaz")

// GetTracer returns the application tracer for creating manual spans.
func GetTracer() trace.Tracer {
	return tracer
}
