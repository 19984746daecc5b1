package reminder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for reminder delivery monitoring
var (
	// reminderScansTotal tracks reminder window scans
	reminderScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_scans_total",
			Help: "Total number of reminder window scans",
		},
	)

	// reminderSentTotal tracks reminder delivery results
	reminderSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_sent_total",
			Help: "Total number of reminder deliveries",
		},
		[]string{"status"}, // status: success|failure
	)

	// reminderSkippedTotal tracks reminders skipped before delivery
	reminderSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_skipped_total",
			Help: "Total number of reminders skipped before delivery",
		},
		[]string{"reason"}, // reason: already_sent|client_missing
	)

	// reminderDuration tracks reminder delivery duration
	reminderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_duration_seconds",
			Help:    "Reminder delivery duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
	)
)

func recordScan() {
	reminderScansTotal.Inc()
}

func recordResult(err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	reminderSentTotal.WithLabelValues(status).Inc()
	reminderDuration.Observe(duration.Seconds())
}

func recordSkipped(reason string) {
	reminderSkippedTotal.WithLabelValues(reason).Inc()
}
