package appointment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

/* ───────── in-memory stub ───────── */

type stubRepo struct {
	data map[uuid.UUID]*entity.Appointment
	err  error
}

func newStub() *stubRepo {
	return &stubRepo{data: map[uuid.UUID]*entity.Appointment{}}
}

func (s *stubRepo) List(_ context.Context, workspaceID uuid.UUID, _ repository.AppointmentRange) ([]*entity.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*entity.Appointment
	for _, v := range s.data {
		if v.WorkspaceID == workspaceID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByClient(_ context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*entity.Appointment
	for _, v := range s.data {
		if v.WorkspaceID == workspaceID && v.ClientID == clientID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubRepo) ListUpcoming(_ context.Context, from, to time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	for _, v := range s.data {
		if v.Status == entity.AppointmentScheduled &&
			!v.ScheduledStart.Before(from) && v.ScheduledStart.Before(to) {
			out = append(out, v)
		}
	}
	return out, s.err
}

func (s *stubRepo) Get(_ context.Context, workspaceID, id uuid.UUID) (*entity.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.data[id]
	if !ok || a.WorkspaceID != workspaceID {
		return nil, nil
	}
	return a, nil
}

func (s *stubRepo) Create(_ context.Context, a *entity.Appointment) error {
	if s.err != nil {
		return s.err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.data[a.ID] = a
	return nil
}

func (s *stubRepo) Update(_ context.Context, a *entity.Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.data[a.ID] = a
	return nil
}

func (s *stubRepo) Delete(_ context.Context, workspaceID, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	a, ok := s.data[id]
	if !ok || a.WorkspaceID != workspaceID {
		return entity.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

var (
	ws     = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	client = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	base   = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
)

func bookInput(start time.Time) apptUC.CreateInput {
	return apptUC.CreateInput{
		WorkspaceID:    ws,
		ClientID:       client,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	}
}

/* ───────── tests ───────── */

func TestService_Create(t *testing.T) {
	repo := newStub()
	svc := &apptUC.Service{Repo: repo}

	a, err := svc.Create(context.Background(), bookInput(base))
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if a.Status != entity.AppointmentScheduled {
		t.Fatalf("status not defaulted: %q", a.Status)
	}
	if a.LocationType != entity.LocationClinic {
		t.Fatalf("location not defaulted: %q", a.LocationType)
	}
}

func TestService_Create_Conflict(t *testing.T) {
	repo := newStub()
	svc := &apptUC.Service{Repo: repo}

	if _, err := svc.Create(context.Background(), bookInput(base)); err != nil {
		t.Fatalf("first booking err=%v", err)
	}

	// Overlapping slot for the same client.
	_, err := svc.Create(context.Background(), bookInput(base.Add(30*time.Minute)))
	if !errors.Is(err, apptUC.ErrSchedulingConflict) {
		t.Fatalf("want ErrSchedulingConflict, got %v", err)
	}

	// Back-to-back slot touches but does not overlap.
	if _, err := svc.Create(context.Background(), bookInput(base.Add(time.Hour))); err != nil {
		t.Fatalf("adjacent booking err=%v", err)
	}
}

func TestService_Create_CancelledDoesNotConflict(t *testing.T) {
	repo := newStub()
	svc := &apptUC.Service{Repo: repo}

	first, err := svc.Create(context.Background(), bookInput(base))
	if err != nil {
		t.Fatalf("first booking err=%v", err)
	}
	if _, err := svc.Cancel(context.Background(), ws, first.ID); err != nil {
		t.Fatalf("Cancel err=%v", err)
	}

	if _, err := svc.Create(context.Background(), bookInput(base)); err != nil {
		t.Fatalf("rebooking over cancelled slot err=%v", err)
	}
}

func TestService_Create_EndBeforeStart(t *testing.T) {
	svc := &apptUC.Service{Repo: newStub()}

	in := bookInput(base)
	in.ScheduledEnd = base.Add(-time.Hour)
	_, err := svc.Create(context.Background(), in)
	var vErr *entity.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestService_Update_Reschedule(t *testing.T) {
	repo := newStub()
	svc := &apptUC.Service{Repo: repo}

	a, _ := svc.Create(context.Background(), bookInput(base))
	other, _ := svc.Create(context.Background(), bookInput(base.Add(2*time.Hour)))

	// Rescheduling onto the other appointment's slot must fail.
	newStart := other.ScheduledStart
	newEnd := other.ScheduledEnd
	_, err := svc.Update(context.Background(), apptUC.UpdateInput{
		WorkspaceID: ws, ID: a.ID,
		ScheduledStart: &newStart, ScheduledEnd: &newEnd,
	})
	if !errors.Is(err, apptUC.ErrSchedulingConflict) {
		t.Fatalf("want ErrSchedulingConflict, got %v", err)
	}

	// Moving to a free slot succeeds.
	freeStart := base.Add(4 * time.Hour)
	freeEnd := freeStart.Add(time.Hour)
	updated, err := svc.Update(context.Background(), apptUC.UpdateInput{
		WorkspaceID: ws, ID: a.ID,
		ScheduledStart: &freeStart, ScheduledEnd: &freeEnd,
	})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if !updated.ScheduledStart.Equal(freeStart) {
		t.Fatalf("start not updated: %v", updated.ScheduledStart)
	}
}

func TestService_Update_StatusTransition(t *testing.T) {
	repo := newStub()
	svc := &apptUC.Service{Repo: repo}

	a, _ := svc.Create(context.Background(), bookInput(base))
	done := entity.AppointmentCompleted
	updated, err := svc.Update(context.Background(), apptUC.UpdateInput{
		WorkspaceID: ws, ID: a.ID, Status: &done,
	})
	if err != nil || updated.Status != entity.AppointmentCompleted {
		t.Fatalf("Update err=%v status=%q", err, updated.Status)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := &apptUC.Service{Repo: newStub()}

	_, err := svc.Get(context.Background(), ws, uuid.New())
	if !errors.Is(err, apptUC.ErrAppointmentNotFound) {
		t.Fatalf("want ErrAppointmentNotFound, got %v", err)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := &apptUC.Service{Repo: newStub()}

	err := svc.Delete(context.Background(), ws, uuid.New())
	if !errors.Is(err, apptUC.ErrAppointmentNotFound) {
		t.Fatalf("want ErrAppointmentNotFound, got %v", err)
	}
}
