// Package client provides HTTP handlers for client-related endpoints.
// It includes handlers for creating, listing, searching, updating, and
// deleting clients. Every handler is scoped to the workspace carried by
// the authenticated request context.
package client

import (
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// DTO represents the JSON structure for client data transfer.
type DTO struct {
	ID        string    `json:"id" example:"5f1c2f1e-0000-4000-8000-000000000001"`
	FirstName string    `json:"first_name" example:"Dana"`
	LastName  string    `json:"last_name,omitempty" example:"Levi"`
	FullName  string    `json:"full_name" example:"Dana Levi"`
	Email     string    `json:"email,omitempty" example:"dana@example.com"`
	Phone     string    `json:"phone,omitempty" example:"+972-50-0000000"`
	CreatedAt time.Time `json:"created_at" example:"2026-01-15T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2026-01-15T12:00:00Z"`
}

func toDTO(c *entity.Client) DTO {
	return DTO{
		ID:        c.ID.String(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
