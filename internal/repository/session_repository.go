package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// SessionRepository manages clinical session notes.
type SessionRepository interface {
	// ListByClient retrieves a client's session notes ordered by session
	// date descending.
	ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Session, error)

	// Get retrieves a session by ID within the workspace.
	// Returns (nil, nil) if not found.
	Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Session, error)

	// Create inserts a new session note.
	Create(ctx context.Context, session *entity.Session) error

	// Update persists changes to an existing session note.
	Update(ctx context.Context, session *entity.Session) error

	// Delete removes a session note within the workspace.
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}
