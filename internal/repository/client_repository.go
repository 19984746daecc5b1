// Package repository defines the persistence interfaces consumed by the
// usecase layer. Every method is scoped by workspace ID; implementations
// must never return rows belonging to another workspace.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// ClientRepository manages client records.
type ClientRepository interface {
	// List retrieves all clients in the workspace ordered by last name.
	List(ctx context.Context, workspaceID uuid.UUID) ([]*entity.Client, error)

	// ListPaginated retrieves a page of workspace clients ordered by last
	// name.
	ListPaginated(ctx context.Context, workspaceID uuid.UUID, offset, limit int) ([]*entity.Client, error)

	// Count returns the number of clients in the workspace.
	Count(ctx context.Context, workspaceID uuid.UUID) (int64, error)

	// Get retrieves a client by ID within the workspace.
	// Returns (nil, nil) if the client is not found.
	Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Client, error)

	// Search finds clients whose name or email matches the keyword.
	Search(ctx context.Context, workspaceID uuid.UUID, keyword string) ([]*entity.Client, error)

	// Create inserts a new client and fills the generated timestamps.
	Create(ctx context.Context, client *entity.Client) error

	// Update persists changes to an existing client.
	Update(ctx context.Context, client *entity.Client) error

	// Delete removes a client within the workspace.
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}
