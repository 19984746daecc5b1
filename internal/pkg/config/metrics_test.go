package config

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// errorCount reads the validation error counter for one field.
func errorCount(m *ConfigMetrics, field string) float64 {
	return testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues(field))
}

// fallbackCount reads the fallback counter for one field.
func fallbackCount(m *ConfigMetrics, field string) float64 {
	return testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(field))
}

func TestNewConfigMetrics(t *testing.T) {
	// Component names must stay unique across the whole test binary;
	// promauto registers with the default registry and panics on reuse.
	m := NewConfigMetrics("testapi_registration")

	assert.NotNil(t, m.LoadTimestamp)
	assert.NotNil(t, m.ValidationErrorsTotal)
	assert.NotNil(t, m.FallbacksTotal)
	assert.NotNil(t, m.FallbackActive)
	assert.Equal(t, "testapi_registration", m.componentName)
}

func TestNewConfigMetrics_PerComponentInstances(t *testing.T) {
	api := NewConfigMetrics("testapi_unique")
	worker := NewConfigMetrics("testworker_unique")

	assert.NotSame(t, api.LoadTimestamp, worker.LoadTimestamp)

	// Both sets must be independently usable.
	api.RecordLoadTimestamp()
	worker.RecordLoadTimestamp()
}

func TestRecordLoadTimestamp(t *testing.T) {
	m := NewConfigMetrics("testapi_load_ts")

	m.RecordLoadTimestamp()

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
}

func TestRecordValidationError_TracksPerField(t *testing.T) {
	m := NewConfigMetrics("testapi_validation")

	assert.Equal(t, float64(0), errorCount(m, "magic_link_ttl"))

	m.RecordValidationError("magic_link_ttl")
	m.RecordValidationError("session_timeout")
	m.RecordValidationError("magic_link_ttl")

	assert.Equal(t, float64(2), errorCount(m, "magic_link_ttl"))
	assert.Equal(t, float64(1), errorCount(m, "session_timeout"))
}

func TestRecordFallback_TracksPerField(t *testing.T) {
	m := NewConfigMetrics("testapi_fallback")

	assert.Equal(t, float64(0), fallbackCount(m, "session_timeout"))

	m.RecordFallback("session_timeout", "default")
	m.RecordFallback("magic_link_ttl", "default")
	m.RecordFallback("reminder_lead_time", "default")
	m.RecordFallback("session_timeout", "default")

	assert.Equal(t, float64(2), fallbackCount(m, "session_timeout"))
	assert.Equal(t, float64(1), fallbackCount(m, "magic_link_ttl"))
	assert.Equal(t, float64(1), fallbackCount(m, "reminder_lead_time"))
}

func TestSetFallbackActive(t *testing.T) {
	m := NewConfigMetrics("testapi_fallback_active")

	m.SetFallbackActive("", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))

	m.SetFallbackActive("session_timeout", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))

	m.SetFallbackActive("session_timeout", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))

	// Repeated sets to the same value are idempotent.
	m.SetFallbackActive("", true)
	m.SetFallbackActive("", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))
}

// A degraded load records a timestamp, per-field errors and fallbacks, and
// raises the fallback gauge, matching what the loaders report when several
// env vars are malformed.
func TestMetrics_DegradedLoadScenario(t *testing.T) {
	m := NewConfigMetrics("testapi_degraded")

	m.RecordLoadTimestamp()

	fields := []string{"magic_link_ttl", "session_timeout", "reminder_lead_time"}
	for _, field := range fields {
		m.RecordValidationError(field)
		m.RecordFallback(field, "default")
	}
	m.SetFallbackActive("multiple", true)

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
	for _, field := range fields {
		assert.Equal(t, float64(1), errorCount(m, field), field)
		assert.Equal(t, float64(1), fallbackCount(m, field), field)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))
}

func TestMetrics_CleanLoadScenario(t *testing.T) {
	m := NewConfigMetrics("testapi_clean")

	m.RecordLoadTimestamp()
	m.SetFallbackActive("", false)

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
	assert.Equal(t, float64(0), errorCount(m, "magic_link_ttl"))
	assert.Equal(t, float64(0), fallbackCount(m, "magic_link_ttl"))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m := NewConfigMetrics("testapi_concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordLoadTimestamp()
			m.RecordValidationError("session_timeout")
			m.RecordFallback("session_timeout", "default")
			m.SetFallbackActive("session_timeout", true)
		}()
	}
	wg.Wait()

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
	assert.Equal(t, float64(10), errorCount(m, "session_timeout"))
	assert.Equal(t, float64(10), fallbackCount(m, "session_timeout"))
}

func TestMetrics_FieldLabelEdgeCases(t *testing.T) {
	m := NewConfigMetrics("testapi_labels")

	// Empty and unusually long field labels are both legal in Prometheus.
	m.RecordValidationError("")
	m.RecordFallback("", "default")
	assert.Equal(t, float64(1), errorCount(m, ""))

	long := "clinic_notification_reminder_lead_time_minutes_before_appointment_start"
	m.RecordValidationError(long)
	m.RecordFallback(long, "default")
	assert.Equal(t, float64(1), errorCount(m, long))
	assert.Equal(t, float64(1), fallbackCount(m, long))
}
