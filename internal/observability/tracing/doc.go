// Package tracing provides OpenTelemetry tracing for the HTTP API.
//
// Middleware wraps handlers in server spans and propagates W3C trace
// context, so a request traced by an upstream service continues its
// trace here. GetTracer exposes the shared tracer for manual spans
// around slower operations such as AI summarization calls.
//
//	handler := tracing.Middleware(mux)
//
//	ctx, span := tracing.GetTracer().Start(ctx, "embed-session-note")
//	defer span.End()
package tracing
