// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (clients, appointments, embeddings, reminders)
//   - Database query metrics
//   - Application performance metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "github.com/yussieik/pazpaz-sub002/internal/observability/metrics"
//
//	func embedSession(note string) {
//	    start := time.Now()
//	    // ... embed the note ...
//
//	    metrics.RecordSessionEmbedded(true)
//	    metrics.RecordEmbeddingDuration(time.Since(start))
//	}
package metrics
