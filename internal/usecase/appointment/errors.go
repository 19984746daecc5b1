// Package appointment provides use cases for scheduling within a workspace.
// It implements business logic for booking, rescheduling, status changes,
// and conflict detection, delegating persistence to the repository.
package appointment

import "errors"

// Sentinel errors for appointment use case operations.
var (
	// ErrAppointmentNotFound indicates that the requested appointment was
	// not found in the workspace.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidAppointmentID indicates that the appointment ID is missing.
	ErrInvalidAppointmentID = errors.New("invalid appointment ID")

	// ErrInvalidWorkspaceID indicates that the workspace ID is missing.
	ErrInvalidWorkspaceID = errors.New("invalid workspace ID")

	// ErrSchedulingConflict indicates that the requested time slot overlaps
	// an existing appointment for the same client.
	ErrSchedulingConflict = errors.New("appointment conflicts with an existing booking")
)
