package retry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// All metrics use a custom registry so that tests and multiple executor
// instances stay isolated. The registry can be exposed with
// promhttp.HandlerFor().
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// attemptsTotal counts operation invocations.
	// Labels:
	//   - operation: Logical operation name
	//   - breaker: Breaker name, "none" when no breaker participates
	attemptsTotal *prometheus.CounterVec

	// waitSeconds tracks computed backoff delays.
	waitSeconds *prometheus.HistogramVec

	// exhaustedTotal counts Run calls that used up the attempt budget.
	exhaustedTotal *prometheus.CounterVec

	// rejectedTotal counts Run calls rejected by an open breaker.
	rejectedTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance with a
// custom registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total operation attempts by operation and breaker",
		},
		[]string{"operation", "breaker"},
	)

	waitSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retry_wait_seconds",
			Help:    "Backoff delay between retry attempts",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"operation"},
	)

	exhaustedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_exhausted_total",
			Help: "Total runs that exhausted their attempt budget",
		},
		[]string{"operation"},
	)

	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_rejected_total",
			Help: "Total runs rejected by an open circuit breaker",
		},
		[]string{"breaker"},
	)

	registry.MustRegister(attemptsTotal, waitSeconds, exhaustedTotal, rejectedTotal)

	return &PrometheusMetrics{
		registry:       registry,
		attemptsTotal:  attemptsTotal,
		waitSeconds:    waitSeconds,
		exhaustedTotal: exhaustedTotal,
		rejectedTotal:  rejectedTotal,
	}
}

// Registry returns the Prometheus registry containing all executor metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt records one invocation of an operation.
func (m *PrometheusMetrics) RecordAttempt(operation string, attempt int, breaker string) {
	if breaker == "" {
		breaker = "none"
	}
	m.attemptsTotal.WithLabelValues(operation, breaker).Inc()
}

// RecordWait records the computed backoff delay before the next attempt.
func (m *PrometheusMetrics) RecordWait(operation string, delay time.Duration) {
	m.waitSeconds.WithLabelValues(operation).Observe(delay.Seconds())
}

// RecordExhausted records a Run call that failed every allowed attempt.
func (m *PrometheusMetrics) RecordExhausted(operation string) {
	m.exhaustedTotal.WithLabelValues(operation).Inc()
}

// RecordRejected records a Run call rejected by an open breaker.
func (m *PrometheusMetrics) RecordRejected(breaker string) {
	m.rejectedTotal.WithLabelValues(breaker).Inc()
}
