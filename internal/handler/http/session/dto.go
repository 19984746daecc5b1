// Package session provides HTTP handlers for clinical session note
// endpoints. Session notes hold SOAP-structured clinical content, so every
// route is admin only; the assistant role cannot reach them.
package session

import (
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// DTO represents the JSON structure for session note data transfer.
type DTO struct {
	ID            string    `json:"id" example:"5f1c2f1e-0000-4000-8000-000000000001"`
	ClientID      string    `json:"client_id" example:"5f1c2f1e-0000-4000-8000-000000000002"`
	AppointmentID *string   `json:"appointment_id,omitempty"`
	Subjective    string    `json:"subjective,omitempty"`
	Objective     string    `json:"objective,omitempty"`
	Assessment    string    `json:"assessment,omitempty"`
	Plan          string    `json:"plan,omitempty"`
	SessionDate   time.Time `json:"session_date" example:"2026-04-01T09:00:00Z"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toDTO(s *entity.Session) DTO {
	dto := DTO{
		ID:          s.ID.String(),
		ClientID:    s.ClientID.String(),
		Subjective:  s.Subjective,
		Objective:   s.Objective,
		Assessment:  s.Assessment,
		Plan:        s.Plan,
		SessionDate: s.SessionDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.AppointmentID != nil {
		id := s.AppointmentID.String()
		dto.AppointmentID = &id
	}
	return dto
}
