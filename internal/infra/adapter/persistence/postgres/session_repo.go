package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

type SessionRepo struct {
	db Querier
}

func NewSessionRepo(db Querier) repository.SessionRepository {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, workspace_id, client_id, appointment_id,
       subjective, objective, assessment, plan, session_date, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }) (*entity.Session, error) {
	var s entity.Session
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.ClientID, &s.AppointmentID,
		&s.Subjective, &s.Objective, &s.Assessment, &s.Plan,
		&s.SessionDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (repo *SessionRepo) ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Session, error) {
	query := `
SELECT ` + sessionColumns + `
FROM sessions
WHERE workspace_id = $1 AND client_id = $2
ORDER BY session_date DESC`
	rows, err := repo.db.QueryContext(ctx, query, workspaceID, clientID)
	if err != nil {
		return nil, fmt.Errorf("ListByClient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*entity.Session, 0, 20)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByClient: Scan: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (repo *SessionRepo) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Session, error) {
	query := `
SELECT ` + sessionColumns + `
FROM sessions
WHERE workspace_id = $1 AND id = $2`
	s, err := scanSession(repo.db.QueryRowContext(ctx, query, workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

func (repo *SessionRepo) Create(ctx context.Context, session *entity.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	const query = `
INSERT INTO sessions (id, workspace_id, client_id, appointment_id,
                      subjective, objective, assessment, plan, session_date,
                      created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		session.ID, session.WorkspaceID, session.ClientID, session.AppointmentID,
		session.Subjective, session.Objective, session.Assessment, session.Plan,
		session.SessionDate,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SessionRepo) Update(ctx context.Context, session *entity.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	const query = `
UPDATE sessions
SET subjective = $3, objective = $4, assessment = $5, plan = $6,
    session_date = $7, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(ctx, query,
		session.WorkspaceID, session.ID,
		session.Subjective, session.Objective, session.Assessment, session.Plan,
		session.SessionDate)
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

func (repo *SessionRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	const query = `DELETE FROM sessions WHERE workspace_id = $1 AND id = $2`
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
