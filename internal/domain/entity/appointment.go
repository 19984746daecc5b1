package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	// AppointmentScheduled is the initial state of a booked appointment.
	AppointmentScheduled AppointmentStatus = "scheduled"

	// AppointmentCompleted marks an appointment whose session took place.
	AppointmentCompleted AppointmentStatus = "completed"

	// AppointmentCancelled marks an appointment cancelled ahead of time.
	AppointmentCancelled AppointmentStatus = "cancelled"

	// AppointmentNoShow marks an appointment the client did not attend.
	AppointmentNoShow AppointmentStatus = "no_show"
)

// LocationType enumerates where an appointment takes place.
type LocationType string

const (
	// LocationClinic is an in-person appointment at the practice.
	LocationClinic LocationType = "clinic"

	// LocationHome is a home visit.
	LocationHome LocationType = "home"

	// LocationOnline is a remote appointment.
	LocationOnline LocationType = "online"
)

// Appointment represents a scheduled meeting between a therapist and a
// client within a workspace.
type Appointment struct {
	ID             uuid.UUID
	WorkspaceID    uuid.UUID
	ClientID       uuid.UUID
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Status         AppointmentStatus
	LocationType   LocationType
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the Appointment entity fields.
func (a *Appointment) Validate() error {
	if err := ValidateRequiredID("workspace_id", a.WorkspaceID); err != nil {
		return err
	}
	if err := ValidateRequiredID("client_id", a.ClientID); err != nil {
		return err
	}
	if a.ScheduledStart.IsZero() || a.ScheduledEnd.IsZero() {
		return &ValidationError{Field: "scheduled_time", Message: "start and end times are required"}
	}
	if !a.ScheduledEnd.After(a.ScheduledStart) {
		return &ValidationError{Field: "scheduled_end", Message: "end time must be after start time"}
	}

	// Status defaults to scheduled for backward compatibility with rows
	// created before the status column existed.
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	switch a.Status {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
	default:
		return &ValidationError{Field: "status", Message: "unknown appointment status"}
	}

	if a.LocationType == "" {
		a.LocationType = LocationClinic
	}
	switch a.LocationType {
	case LocationClinic, LocationHome, LocationOnline:
	default:
		return &ValidationError{Field: "location_type", Message: "unknown location type"}
	}

	return ValidateNoteLength("notes", a.Notes)
}
