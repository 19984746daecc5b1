// Package resilience groups the fault tolerance building blocks that guard
// every outbound call to a third-party dependency.
//
// Subpackages:
//   - backoff: exponential backoff delay computation with jitter
//   - circuitbreaker: named breaker state machines, their registry, and a
//     gobreaker-based guard for database calls
//   - retry: the executor tying backoff, classification, and breakers
//     together behind a single Run entry point
//
// Usage Example:
//
//	registry := circuitbreaker.NewRegistry()
//	executor := retry.NewExecutor(registry, retry.NewPrometheusMetrics())
//
//	result, err := executor.Run(ctx, retry.EmbeddingPolicy(), func(ctx context.Context) (interface{}, error) {
//	    return callProvider(ctx)
//	})
package resilience
