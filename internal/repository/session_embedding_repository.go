package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// SimilarSession represents the result of a similarity search over session
// note embeddings. Similarity is cosine similarity in [0.0, 1.0].
type SimilarSession struct {
	SessionID  uuid.UUID
	Similarity float64
}

// SessionEmbeddingRepository manages session note embeddings.
type SessionEmbeddingRepository interface {
	// Upsert creates a new embedding or updates an existing one, keyed by
	// (session_id, provider, model). On conflict the vector, dimension,
	// and updated_at are replaced.
	Upsert(ctx context.Context, embedding *entity.SessionEmbedding) error

	// SearchSimilar finds sessions in the workspace whose note embeddings
	// are similar to the query vector, ordered by similarity descending.
	SearchSimilar(ctx context.Context, workspaceID uuid.UUID, embedding []float32, limit int) ([]SimilarSession, error)

	// DeleteBySessionID removes all embeddings for a session and returns
	// the number of deleted rows. Deleting a session with no embeddings
	// is not an error.
	DeleteBySessionID(ctx context.Context, sessionID uuid.UUID) (int64, error)
}
