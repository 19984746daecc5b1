package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxNameLength caps person and label fields to keep rows bounded.
const maxNameLength = 200

// maxNoteLength caps free-text clinical note fields.
const maxNoteLength = 50000

// ValidateRequiredID checks that a UUID field is set.
func ValidateRequiredID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
	}
	return nil
}

// ValidateRequiredString checks that a string field is non-blank and within
// the name length bound.
func ValidateRequiredString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
	}
	if len(value) > maxNameLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must not exceed %d characters", field, maxNameLength),
		}
	}
	return nil
}

// ValidateNoteLength checks that a free-text note stays within bounds.
// Empty notes are allowed.
func ValidateNoteLength(field, value string) error {
	if len(value) > maxNoteLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must not exceed %d characters", field, maxNoteLength),
		}
	}
	return nil
}

// ValidateEmail performs a light-weight shape check on an email address.
// An empty email is allowed; contact details are optional for clients.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > maxNameLength {
		return &ValidationError{Field: "email", Message: "email is too long"}
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Contains(email, " ") {
		return &ValidationError{Field: "email", Message: "email format is invalid"}
	}
	return nil
}
