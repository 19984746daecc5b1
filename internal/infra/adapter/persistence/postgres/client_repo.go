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

type ClientRepo struct {
	db Querier
}

func NewClientRepo(db Querier) repository.ClientRepository {
	return &ClientRepo{db: db}
}

const clientColumns = `id, workspace_id, first_name, last_name, email, phone, created_at, updated_at`

func scanClient(row interface{ Scan(...interface{}) error }) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (repo *ClientRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*entity.Client, error) {
	query := `
SELECT ` + clientColumns + `
FROM clients
WHERE workspace_id = $1
ORDER BY last_name, first_name`
	rows, err := repo.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := make([]*entity.Client, 0, 50)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (repo *ClientRepo) ListPaginated(ctx context.Context, workspaceID uuid.UUID, offset, limit int) ([]*entity.Client, error) {
	query := `
SELECT ` + clientColumns + `
FROM clients
WHERE workspace_id = $1
ORDER BY last_name, first_name
LIMIT $2 OFFSET $3`
	rows, err := repo.db.QueryContext(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListPaginated: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := make([]*entity.Client, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPaginated: Scan: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (repo *ClientRepo) Count(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM clients WHERE workspace_id = $1`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, workspaceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *ClientRepo) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Client, error) {
	query := `
SELECT ` + clientColumns + `
FROM clients
WHERE workspace_id = $1 AND id = $2`
	c, err := scanClient(repo.db.QueryRowContext(ctx, query, workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return c, nil
}

func (repo *ClientRepo) Search(ctx context.Context, workspaceID uuid.UUID, keyword string) ([]*entity.Client, error) {
	query := `
SELECT ` + clientColumns + `
FROM clients
WHERE workspace_id = $1
  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
ORDER BY last_name, first_name`
	rows, err := repo.db.QueryContext(ctx, query, workspaceID, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := make([]*entity.Client, 0, 20)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: Scan: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (repo *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	const query = `
INSERT INTO clients (id, workspace_id, first_name, last_name, email, phone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		client.ID, client.WorkspaceID, client.FirstName, client.LastName,
		client.Email, client.Phone,
	).Scan(&client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ClientRepo) Update(ctx context.Context, client *entity.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	const query = `
UPDATE clients
SET first_name = $3, last_name = $4, email = $5, phone = $6, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(ctx, query,
		client.WorkspaceID, client.ID, client.FirstName, client.LastName,
		client.Email, client.Phone)
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

func (repo *ClientRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	const query = `DELETE FROM clients WHERE workspace_id = $1 AND id = $2`
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
