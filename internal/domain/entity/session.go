package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session represents a clinical session note in SOAP format (subjective,
// objective, assessment, plan). A session may be linked to the appointment
// it documents, or stand alone for ad-hoc notes.
type Session struct {
	ID            uuid.UUID
	WorkspaceID   uuid.UUID
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Subjective    string
	Objective     string
	Assessment    string
	Plan          string
	SessionDate   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates the Session entity fields.
func (s *Session) Validate() error {
	if err := ValidateRequiredID("workspace_id", s.WorkspaceID); err != nil {
		return err
	}
	if err := ValidateRequiredID("client_id", s.ClientID); err != nil {
		return err
	}
	if s.SessionDate.IsZero() {
		return &ValidationError{Field: "session_date", Message: "session date is required"}
	}
	for field, value := range map[string]string{
		"subjective": s.Subjective,
		"objective":  s.Objective,
		"assessment": s.Assessment,
		"plan":       s.Plan,
	} {
		if err := ValidateNoteLength(field, value); err != nil {
			return err
		}
	}
	if s.IsEmpty() {
		return &ValidationError{Field: "note", Message: "at least one SOAP field is required"}
	}
	return nil
}

// IsEmpty reports whether all SOAP fields are blank.
func (s *Session) IsEmpty() bool {
	return strings.TrimSpace(s.Subjective) == "" &&
		strings.TrimSpace(s.Objective) == "" &&
		strings.TrimSpace(s.Assessment) == "" &&
		strings.TrimSpace(s.Plan) == ""
}

// NoteText concatenates the SOAP fields into the text used for embedding
// generation and semantic search.
func (s *Session) NoteText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.Subjective, s.Objective, s.Assessment, s.Plan} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "\n\n")
}
