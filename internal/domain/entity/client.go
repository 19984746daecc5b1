// Package entity defines the core domain entities and validation logic for
// the application. It contains the fundamental business objects such as
// Client, Appointment, and Session, along with their validation rules and
// domain-specific errors. Every entity is scoped to a workspace, the tenancy
// unit of the system.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a person receiving care within a workspace.
type Client struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the Client entity fields.
func (c *Client) Validate() error {
	if err := ValidateRequiredID("workspace_id", c.WorkspaceID); err != nil {
		return err
	}
	if err := ValidateRequiredString("first_name", c.FirstName); err != nil {
		return err
	}
	if c.LastName != "" {
		if err := ValidateRequiredString("last_name", c.LastName); err != nil {
			return err
		}
	}
	return ValidateEmail(c.Email)
}

// FullName returns the display name for the client.
func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
