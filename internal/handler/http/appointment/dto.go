// Package appointment provides HTTP handlers for appointment scheduling
// endpoints: booking, listing, rescheduling, cancelling, and deleting
// appointments within the authenticated workspace.
package appointment

import (
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// DTO represents the JSON structure for appointment data transfer.
type DTO struct {
	ID             string    `json:"id" example:"5f1c2f1e-0000-4000-8000-000000000001"`
	ClientID       string    `json:"client_id" example:"5f1c2f1e-0000-4000-8000-000000000002"`
	ScheduledStart time.Time `json:"scheduled_start" example:"2026-04-01T09:00:00Z"`
	ScheduledEnd   time.Time `json:"scheduled_end" example:"2026-04-01T10:00:00Z"`
	Status         string    `json:"status" example:"scheduled"`
	LocationType   string    `json:"location_type" example:"clinic"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDTO(a *entity.Appointment) DTO {
	return DTO{
		ID:             a.ID.String(),
		ClientID:       a.ClientID.String(),
		ScheduledStart: a.ScheduledStart,
		ScheduledEnd:   a.ScheduledEnd,
		Status:         string(a.Status),
		LocationType:   string(a.LocationType),
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
