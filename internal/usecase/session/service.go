// Package session implements business logic for clinical session notes.
// Saving a note triggers asynchronous embedding generation so that the
// note becomes searchable; deleting a note removes its embeddings.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// EmbedHook receives saved session notes for asynchronous embedding
// generation. Implemented by ai.EmbeddingHook.
type EmbedHook interface {
	EmbedSessionAsync(ctx context.Context, session *entity.Session)
}

// Service provides session note management operations.
type Service struct {
	Repo       repository.SessionRepository
	Embeddings repository.SessionEmbeddingRepository
	Hook       EmbedHook
}

// NewService creates a session Service. Hook and embeddings may be nil when
// AI features are disabled.
func NewService(repo repository.SessionRepository, embeddings repository.SessionEmbeddingRepository, hook EmbedHook) *Service {
	return &Service{Repo: repo, Embeddings: embeddings, Hook: hook}
}

// CreateInput carries the fields for creating a session note.
type CreateInput struct {
	WorkspaceID   uuid.UUID
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Subjective    string
	Objective     string
	Assessment    string
	Plan          string
	SessionDate   time.Time
}

// UpdateInput carries the fields for updating a session note. Nil fields
// are left unchanged.
type UpdateInput struct {
	WorkspaceID uuid.UUID
	ID          uuid.UUID
	Subjective  *string
	Objective   *string
	Assessment  *string
	Plan        *string
	SessionDate *time.Time
}

// ListByClient retrieves a client's session notes, newest first.
func (s *Service) ListByClient(ctx context.Context, workspaceID, clientID uuid.UUID) ([]*entity.Session, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	sessions, err := s.Repo.ListByClient(ctx, workspaceID, clientID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Get retrieves a single session note within the workspace.
// Returns ErrSessionNotFound if it does not exist.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Session, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return nil, ErrInvalidSessionID
	}
	sess, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Create stores a new session note and hands it to the embedding hook.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Session, error) {
	sess := &entity.Session{
		WorkspaceID:   in.WorkspaceID,
		ClientID:      in.ClientID,
		AppointmentID: in.AppointmentID,
		Subjective:    in.Subjective,
		Objective:     in.Objective,
		Assessment:    in.Assessment,
		Plan:          in.Plan,
		SessionDate:   in.SessionDate,
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.embedAsync(ctx, sess)
	return sess, nil
}

// Update applies the non-nil fields of in to an existing session note and
// re-submits the note for embedding so search stays in sync with edits.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Session, error) {
	if in.WorkspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if in.ID == uuid.Nil {
		return nil, ErrInvalidSessionID
	}
	sess, err := s.Repo.Get(ctx, in.WorkspaceID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	if in.Subjective != nil {
		sess.Subjective = *in.Subjective
	}
	if in.Objective != nil {
		sess.Objective = *in.Objective
	}
	if in.Assessment != nil {
		sess.Assessment = *in.Assessment
	}
	if in.Plan != nil {
		sess.Plan = *in.Plan
	}
	if in.SessionDate != nil {
		sess.SessionDate = *in.SessionDate
	}

	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, sess); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	s.embedAsync(ctx, sess)
	return sess, nil
}

// Delete removes a session note and its embeddings. Embedding cleanup
// failures are logged but do not fail the delete; the rows are orphaned
// and unreachable once the session is gone.
func (s *Service) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	if workspaceID == uuid.Nil {
		return ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return ErrInvalidSessionID
	}
	if err := s.Repo.Delete(ctx, workspaceID, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}
	if s.Embeddings != nil {
		deleted, err := s.Embeddings.DeleteBySessionID(ctx, id)
		if err != nil {
			slog.Warn("failed to delete session embeddings",
				"session_id", id.String(),
				"error", err,
			)
		} else if deleted > 0 {
			slog.Debug("deleted session embeddings",
				"session_id", id.String(),
				"count", deleted,
			)
		}
	}
	return nil
}

func (s *Service) embedAsync(ctx context.Context, sess *entity.Session) {
	if s.Hook == nil {
		return
	}
	s.Hook.EmbedSessionAsync(ctx, sess)
}
