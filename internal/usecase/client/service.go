package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/common/pagination"
	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// CreateInput represents the input parameters for creating a new client.
type CreateInput struct {
	WorkspaceID uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       string
}

// UpdateInput represents the input parameters for updating an existing
// client. Fields with nil values will not be updated.
type UpdateInput struct {
	WorkspaceID uuid.UUID
	ID          uuid.UUID
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
}

// Service provides client management use cases.
type Service struct {
	Repo repository.ClientRepository
}

// PaginatedResult represents the result of a paginated client query.
type PaginatedResult struct {
	Data       []*entity.Client
	Pagination pagination.Metadata
}

// List retrieves all clients in the workspace.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID) ([]*entity.Client, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	clients, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// ListPaginated retrieves clients with pagination support.
func (s *Service) ListPaginated(ctx context.Context, workspaceID uuid.UUID, params pagination.Params) (*PaginatedResult, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}

	offset := pagination.CalculateOffset(params.Page, params.Limit)

	total, err := s.Repo.Count(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	clients, err := s.Repo.ListPaginated(ctx, workspaceID, offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list clients paginated: %w", err)
	}

	return &PaginatedResult{
		Data: clients,
		Pagination: pagination.Metadata{
			Total:      total,
			Page:       params.Page,
			Limit:      params.Limit,
			TotalPages: pagination.CalculateTotalPages(total, params.Limit),
		},
	}, nil
}

// Get retrieves a single client by ID within the workspace.
// Returns ErrClientNotFound if the client does not exist.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Client, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return nil, ErrInvalidClientID
	}

	c, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if c == nil {
		return nil, ErrClientNotFound
	}
	return c, nil
}

// Search finds clients whose name or email matches the keyword.
func (s *Service) Search(ctx context.Context, workspaceID uuid.UUID, keyword string) ([]*entity.Client, error) {
	if workspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.List(ctx, workspaceID)
	}

	clients, err := s.Repo.Search(ctx, workspaceID, keyword)
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	return clients, nil
}

// Create creates a new client with the provided input.
// Returns a ValidationError if any input field is invalid.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Client, error) {
	c := &entity.Client{
		WorkspaceID: in.WorkspaceID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// Update modifies an existing client with the provided input.
// Only non-nil fields in the input will be updated.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Client, error) {
	if in.WorkspaceID == uuid.Nil {
		return nil, ErrInvalidWorkspaceID
	}
	if in.ID == uuid.Nil {
		return nil, ErrInvalidClientID
	}

	c, err := s.Repo.Get(ctx, in.WorkspaceID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if c == nil {
		return nil, ErrClientNotFound
	}

	if in.FirstName != nil {
		c.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		c.LastName = *in.LastName
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// Delete removes a client from the workspace.
// Returns ErrClientNotFound if the client does not exist.
func (s *Service) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	if workspaceID == uuid.Nil {
		return ErrInvalidWorkspaceID
	}
	if id == uuid.Nil {
		return ErrInvalidClientID
	}

	if err := s.Repo.Delete(ctx, workspaceID, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
