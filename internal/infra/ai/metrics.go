package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for AI provider calls. Registered once on the default
// registry; both adapters share the same series, distinguished by the
// provider label.
var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_provider_requests_total",
			Help: "Total number of AI provider requests",
		},
		[]string{"provider", "method", "status"},
	)

	// Buckets cover embedding calls (sub-second) through slow chat
	// completions.
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_provider_request_duration_seconds",
			Help:    "AI provider request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "method"},
	)
)

// requestMetrics records per-call outcome metrics for one provider.
type requestMetrics struct {
	provider string
}

func newRequestMetrics() *requestMetrics {
	return &requestMetrics{provider: "openai"}
}

func newRequestMetricsFor(provider string) *requestMetrics {
	return &requestMetrics{provider: provider}
}

func (m *requestMetrics) observe(method string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	aiRequestsTotal.WithLabelValues(m.provider, method, status).Inc()
	aiRequestDuration.WithLabelValues(m.provider, method).Observe(duration.Seconds())
}
