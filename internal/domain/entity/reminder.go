package entity

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is the notification payload for an upcoming appointment. It is
// derived from an appointment and its client at send time and never
// persisted.
type Reminder struct {
	AppointmentID  uuid.UUID
	WorkspaceID    uuid.UUID
	ClientName     string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Location       LocationType
	Notes          string
}

// Validate validates the Reminder fields.
func (r *Reminder) Validate() error {
	if err := ValidateRequiredID("appointment_id", r.AppointmentID); err != nil {
		return err
	}
	if err := ValidateRequiredID("workspace_id", r.WorkspaceID); err != nil {
		return err
	}
	if r.ClientName == "" {
		return &ValidationError{Field: "client_name", Message: "client name is required"}
	}
	if r.ScheduledStart.IsZero() {
		return &ValidationError{Field: "scheduled_start", Message: "start time is required"}
	}
	return nil
}
