package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// All metrics use a custom registry for better testability and isolation.
// The registry can be passed to promhttp.HandlerFor() to expose metrics.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// transitionsTotal counts breaker state transitions.
	// Labels:
	//   - breaker: Breaker name (e.g., "openai-embedding")
	//   - from: Previous state
	//   - to: New state
	transitionsTotal *prometheus.CounterVec

	// currentState tracks the breaker state as a gauge.
	// Values: 0=closed, 1=open, 2=half-open
	currentState *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance with a
// custom registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions by breaker name",
		},
		[]string{"breaker", "from", "to"},
	)

	currentState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"breaker"},
	)

	registry.MustRegister(transitionsTotal, currentState)

	return &PrometheusMetrics{
		registry:         registry,
		transitionsTotal: transitionsTotal,
		currentState:     currentState,
	}
}

// Registry returns the Prometheus registry containing all breaker metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTransition records a state transition for the named breaker.
func (m *PrometheusMetrics) RecordTransition(breaker, from, to string) {
	m.transitionsTotal.WithLabelValues(breaker, from, to).Inc()
	m.RecordState(breaker, to)
}

// RecordState records the current state of the named breaker.
func (m *PrometheusMetrics) RecordState(breaker, state string) {
	var stateValue float64
	switch state {
	case "closed":
		stateValue = 0
	case "open":
		stateValue = 1
	case "half-open":
		stateValue = 2
	default:
		stateValue = 0
	}
	m.currentState.WithLabelValues(breaker).Set(stateValue)
}
