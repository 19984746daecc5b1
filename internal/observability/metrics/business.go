package metrics

import (
	"time"
)

// RecordAppointmentBooked records the result of an appointment booking
// attempt. Result should be "created", "conflict", or "error".
func RecordAppointmentBooked(result string) {
	AppointmentsBookedTotal.WithLabelValues(result).Inc()
}

// RecordSessionEmbedded records the result of a session note embedding
// operation. Status should be either "success" or "failure".
func RecordSessionEmbedded(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	SessionsEmbeddedTotal.WithLabelValues(status).Inc()
}

// RecordEmbeddingDuration records the time taken to embed a session note.
// This helps identify performance issues with the embedding provider.
func RecordEmbeddingDuration(duration time.Duration) {
	EmbeddingDuration.Observe(duration.Seconds())
}

// RecordInsightRequest records the result of a client insight generation.
func RecordInsightRequest(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	InsightRequestsTotal.WithLabelValues(status).Inc()
}

// RecordInsightDuration records the time taken to generate a client insight.
func RecordInsightDuration(duration time.Duration) {
	InsightDuration.Observe(duration.Seconds())
}

// RecordReminderSent records a reminder delivery attempt on a channel.
// Status should be either "success" or "failure".
func RecordReminderSent(channel string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	RemindersSentTotal.WithLabelValues(channel, status).Inc()
}

// RecordReminderScanDuration records the time taken to scan for due
// appointment reminders.
func RecordReminderScanDuration(duration time.Duration) {
	ReminderScanDuration.Observe(duration.Seconds())
}

// UpdateClientsTotal updates the total count of clients in the database.
// This gauge should be updated periodically to reflect the current state.
func UpdateClientsTotal(count int) {
	ClientsTotal.Set(float64(count))
}

// UpdateAppointmentsTotal updates the total count of appointments in the
// database. This gauge should be updated periodically to reflect the
// current state.
func UpdateAppointmentsTotal(count int) {
	AppointmentsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_clients", "insert_appointment").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
