package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// CreateInput represents the input parameters for booking an appointment.
type CreateInput struct {
	WorkspaceID    uuid.UUID
	ClientID       uuid.UUID
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	LocationType   entity.LocationType
	Notes          string
}

// UpdateInput represents the input parameters for updating an appointment.
// Fields with nil values will not be updated.
type UpdateInput struct {
	WorkspaceID    uuid.UUID
	ID             uuid.UUID
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Status         *entity.AppointmentStatus
	LocationType   *entity.LocationType
	Notes          *string
}

// Service provides appointment scheduling use cases.
type Service struct {
	Repo repository.AppointmentRepository
}

// List retrieves workspace appointments within the optional time range.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID, rng repository.AppointmentRange) ([]*entity.Appointment, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	appointments, err := s.Repo.List(ctx, workspaceID, rng)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// ListByClient retrieves a client's appointment history.
func (s *Service) ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Appointment, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	appointments, err := s.Repo.ListByClient(ctx, workspaceID, clientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appointments, nil
}

// Get retrieves a single appointment by ID within the workspace.
// Returns ErrAppointmentNotFound if it does not exist.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Appointment, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return nil, ErrInvalidAppointmentID
	}

	a, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a == nil {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

// Create books a new appointment. The slot is checked against the client's
// existing scheduled appointments; overlaps are rejected with
// ErrSchedulingConflict.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Appointment, error) {
	a := &entity.Appointment{
		WorkspaceID:    in.WorkspaceID,
		ClientID:       in.ClientID,
		ScheduledStart: in.ScheduledStart,
		ScheduledEnd:   in.ScheduledEnd,
		Status:         entity.AppointmentScheduled,
		LocationType:   in.LocationType,
		Notes:          in.Notes,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkConflict(ctx, a, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

// Update modifies an existing appointment. Rescheduling re-runs conflict
// detection against the client's other scheduled appointments.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Appointment, error) {
	if in.WorkspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if in.ID == uuid.Nil {
		return nil, ErrInvalidAppointmentID
	}

	a, err := s.Repo.Get(ctx, in.WorkspaceID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a == nil {
		return nil, ErrAppointmentNotFound
	}

	rescheduled := false
	if in.ScheduledStart != nil {
		a.ScheduledStart = *in.ScheduledStart
		rescheduled = true
	}
	if in.ScheduledEnd != nil {
		a.ScheduledEnd = *in.ScheduledEnd
		rescheduled = true
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.LocationType != nil {
		a.LocationType = *in.LocationType
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if rescheduled && a.Status == entity.AppointmentScheduled {
		if err := s.checkConflict(ctx, a, a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Update(ctx, a); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return a, nil
}

// Cancel marks an appointment as cancelled.
func (s *Service) Cancel(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Appointment, error) {
	status := entity.AppointmentCancelled
	return s.Update(ctx, UpdateInput{
		WorkspaceID: workspaceID,
		ID:          id,
		Status:      &status,
	})
}

// Delete removes an appointment from the workspace.
func (s *Service) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	if workspaceID == uuid.Nil {
		return ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return ErrInvalidAppointmentID
	}

	if err := s.Repo.Delete(ctx, workspaceID, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// checkConflict rejects slots overlapping another scheduled appointment for
// the same client. excludeID skips the appointment being rescheduled.
func (s *Service) checkConflict(ctx context.Context, a *entity.Appointment, excludeID uuid.UUID) error {
	existing, err := s.Repo.ListByClient(ctx, a.WorkspaceID, a.ClientID)
	if err != nil {
		return fmt.Errorf("check conflicts: %w", err)
	}
	for _, other := range existing {
		if other.ID == excludeID || other.Status != entity.AppointmentScheduled {
			continue
		}
		if a.ScheduledStart.Before(other.ScheduledEnd) && other.ScheduledStart.Before(a.ScheduledEnd) {
			return ErrSchedulingConflict
		}
	}
	return nil
}
