package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// DefaultSearchTimeout is the default timeout for similarity search queries.
const DefaultSearchTimeout = 5 * time.Second

type SessionEmbeddingRepo struct {
	db Querier
}

func NewSessionEmbeddingRepo(db Querier) repository.SessionEmbeddingRepository {
	return &SessionEmbeddingRepo{db: db}
}

// Upsert creates a new embedding or updates an existing one.
// Uses INSERT ... ON CONFLICT DO UPDATE keyed by (session_id, provider, model).
func (repo *SessionEmbeddingRepo) Upsert(ctx context.Context, embedding *entity.SessionEmbedding) error {
	if embedding == nil {
		return fmt.Errorf("Upsert: embedding is nil")
	}
	if err := embedding.Validate(); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	if embedding.ID == uuid.Nil {
		embedding.ID = uuid.New()
	}

	vector := pgvector.NewVector(embedding.Embedding)

	const query = `
INSERT INTO session_embeddings (id, session_id, provider, model, dimension, embedding, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (session_id, provider, model)
DO UPDATE SET
	dimension = EXCLUDED.dimension,
	embedding = EXCLUDED.embedding,
	updated_at = NOW()
RETURNING id, created_at, updated_at`

	err := repo.db.QueryRowContext(ctx, query,
		embedding.ID,
		embedding.SessionID,
		string(embedding.Provider),
		embedding.Model,
		embedding.Dimension,
		vector,
	).Scan(&embedding.ID, &embedding.CreatedAt, &embedding.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// SearchSimilar finds sessions with note embeddings similar to the provided
// vector. Uses the cosine distance operator (<=>) and joins through sessions
// so results stay inside the caller's workspace.
func (repo *SessionEmbeddingRepo) SearchSimilar(ctx context.Context, workspaceID uuid.UUID, embedding []float32, limit int) ([]repository.SimilarSession, error) {
	searchCtx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	vector := pgvector.NewVector(embedding)

	const query = `
SELECT se.session_id, 1 - (se.embedding <=> $1) AS similarity
FROM session_embeddings se
JOIN sessions s ON s.id = se.session_id
WHERE s.workspace_id = $2
ORDER BY se.embedding <=> $1
LIMIT $3`

	rows, err := repo.db.QueryContext(searchCtx, query, vector, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]repository.SimilarSession, 0, limit)
	for rows.Next() {
		var result repository.SimilarSession
		if err := rows.Scan(&result.SessionID, &result.Similarity); err != nil {
			return nil, fmt.Errorf("SearchSimilar: Scan: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	return results, nil
}

// DeleteBySessionID removes all embeddings associated with a session.
// Returns the number of deleted rows.
func (repo *SessionEmbeddingRepo) DeleteBySessionID(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	const query = `DELETE FROM session_embeddings WHERE session_id = $1`

	result, err := repo.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("DeleteBySessionID: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteBySessionID: RowsAffected: %w", err)
	}
	return count, nil
}
