package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmbeddingProvider identifies which AI provider produced an embedding.
type EmbeddingProvider string

const (
	// ProviderOpenAI identifies embeddings generated through OpenAI.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// SessionEmbedding represents a vector embedding of a session note, used
// for semantic search across a client's history.
type SessionEmbedding struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Provider  EmbeddingProvider
	Model     string
	Dimension int
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the SessionEmbedding entity fields.
func (e *SessionEmbedding) Validate() error {
	if err := ValidateRequiredID("session_id", e.SessionID); err != nil {
		return err
	}
	if e.Provider == "" {
		return &ValidationError{Field: "provider", Message: "provider is required"}
	}
	if e.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(e.Embedding) == 0 {
		return &ValidationError{Field: "embedding", Message: "embedding vector is required"}
	}
	if e.Dimension != len(e.Embedding) {
		return &ValidationError{
			Field:   "dimension",
			Message: fmt.Sprintf("dimension %d does not match vector length %d", e.Dimension, len(e.Embedding)),
		}
	}
	return nil
}
