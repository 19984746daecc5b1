package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// AppointmentRange contains optional time bounds for appointment listing.
type AppointmentRange struct {
	From *time.Time // Optional: appointments starting >= this time
	To   *time.Time // Optional: appointments starting <= this time
}

// AppointmentRepository manages appointment records.
type AppointmentRepository interface {
	// List retrieves workspace appointments within the optional range,
	// ordered by scheduled start.
	List(ctx context.Context, workspaceID uuid.UUID, rng AppointmentRange) ([]*entity.Appointment, error)

	// ListByClient retrieves a client's appointments ordered by scheduled
	// start descending.
	ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Appointment, error)

	// ListUpcoming retrieves scheduled appointments across all workspaces
	// starting within [from, to). Used by the reminder scheduler.
	ListUpcoming(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error)

	// Get retrieves an appointment by ID within the workspace.
	// Returns (nil, nil) if not found.
	Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Appointment, error)

	// Create inserts a new appointment.
	Create(ctx context.Context, appointment *entity.Appointment) error

	// Update persists changes to an existing appointment.
	Update(ctx context.Context, appointment *entity.Appointment) error

	// Delete removes an appointment within the workspace.
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}
