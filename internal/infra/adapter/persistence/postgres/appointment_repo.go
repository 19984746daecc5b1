package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

type AppointmentRepo struct {
	db Querier
}

func NewAppointmentRepo(db Querier) repository.AppointmentRepository {
	return &AppointmentRepo{db: db}
}

const appointmentColumns = `id, workspace_id, client_id, scheduled_start, scheduled_end,
       status, location_type, notes, created_at, updated_at`

func scanAppointment(row interface{ Scan(...interface{}) error }) (*entity.Appointment, error) {
	var a entity.Appointment
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.ClientID, &a.ScheduledStart, &a.ScheduledEnd,
		&a.Status, &a.LocationType, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *AppointmentRepo) List(ctx context.Context, workspaceID uuid.UUID, rng repository.AppointmentRange) ([]*entity.Appointment, error) {
	query := `
SELECT ` + appointmentColumns + `
FROM appointments
WHERE workspace_id = $1`
	args := []interface{}{workspaceID}
	if rng.From != nil {
		args = append(args, *rng.From)
		query += " AND scheduled_start >= $" + strconv.Itoa(len(args))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		query += " AND scheduled_start <= $" + strconv.Itoa(len(args))
	}
	query += "\nORDER BY scheduled_start"

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectAppointments(rows, "List")
}

func (repo *AppointmentRepo) ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Appointment, error) {
	query := `
SELECT ` + appointmentColumns + `
FROM appointments
WHERE workspace_id = $1 AND client_id = $2
ORDER BY scheduled_start DESC`
	rows, err := repo.db.QueryContext(ctx, query, workspaceID, clientID)
	if err != nil {
		return nil, fmt.Errorf("ListByClient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectAppointments(rows, "ListByClient")
}

func (repo *AppointmentRepo) ListUpcoming(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error) {
	query := `
SELECT ` + appointmentColumns + `
FROM appointments
WHERE status = $1 AND scheduled_start >= $2 AND scheduled_start < $3
ORDER BY scheduled_start`
	rows, err := repo.db.QueryContext(ctx, query, entity.AppointmentScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("ListUpcoming: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectAppointments(rows, "ListUpcoming")
}

func collectAppointments(rows *sql.Rows, op string) ([]*entity.Appointment, error) {
	appointments := make([]*entity.Appointment, 0, 20)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (repo *AppointmentRepo) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Appointment, error) {
	query := `
SELECT ` + appointmentColumns + `
FROM appointments
WHERE workspace_id = $1 AND id = $2`
	a, err := scanAppointment(repo.db.QueryRowContext(ctx, query, workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *AppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	if err := appointment.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	const query = `
INSERT INTO appointments (id, workspace_id, client_id, scheduled_start, scheduled_end,
                          status, location_type, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		appointment.ID, appointment.WorkspaceID, appointment.ClientID,
		appointment.ScheduledStart, appointment.ScheduledEnd,
		appointment.Status, appointment.LocationType, appointment.Notes,
	).Scan(&appointment.CreatedAt, &appointment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *AppointmentRepo) Update(ctx context.Context, appointment *entity.Appointment) error {
	if err := appointment.Validate(); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	const query = `
UPDATE appointments
SET client_id = $3, scheduled_start = $4, scheduled_end = $5,
    status = $6, location_type = $7, notes = $8, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(ctx, query,
		appointment.WorkspaceID, appointment.ID, appointment.ClientID,
		appointment.ScheduledStart, appointment.ScheduledEnd,
		appointment.Status, appointment.LocationType, appointment.Notes)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *AppointmentRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	const query = `DELETE FROM appointments WHERE workspace_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(ctx, query, workspaceID, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}
