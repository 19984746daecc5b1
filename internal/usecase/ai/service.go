// Package ai orchestrates the AI-assisted features: semantic search over
// session notes, clinical insight generation, and asynchronous embedding of
// saved notes. It validates input, enforces the feature flag, and delegates
// the actual API traffic to a Provider implementation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

var (
	// ErrAIDisabled is returned when AI features are disabled.
	ErrAIDisabled = errors.New("AI features are disabled")
	// ErrInvalidQuery is returned when the search query is empty or invalid.
	ErrInvalidQuery = errors.New("search query cannot be empty")
	// ErrInvalidQuestion is returned when the question is empty or invalid.
	ErrInvalidQuestion = errors.New("question cannot be empty")
	// ErrNoSessions is returned when a client has no session notes to
	// ground an insight on.
	ErrNoSessions = errors.New("client has no session notes")
)

// maxInsightNotes bounds how many session notes feed one insight request.
const maxInsightNotes = 10

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// requestIDKey is the context key for request ID.
const requestIDKey contextKey = "request_id"

// Service provides AI-powered operations over clinical session notes.
type Service struct {
	provider      Provider
	sessions      repository.SessionRepository
	embeddings    repository.SessionEmbeddingRepository
	aiEnabled     bool
	minSimilarity float64
}

// NewService creates a new AI service.
func NewService(
	provider Provider,
	sessions repository.SessionRepository,
	embeddings repository.SessionEmbeddingRepository,
	aiEnabled bool,
) *Service {
	return &Service{
		provider:      provider,
		sessions:      sessions,
		embeddings:    embeddings,
		aiEnabled:     aiEnabled,
		minSimilarity: 0.5,
	}
}

// SearchSessions performs semantic search over the workspace's session
// notes. The query is embedded and compared against stored note embeddings;
// matches below the similarity floor are dropped.
func (s *Service) SearchSessions(ctx context.Context, workspaceID uuid.UUID, query string, limit int) ([]repository.SimilarSession, error) {
	requestID := s.getOrCreateRequestID(ctx)

	if !s.aiEnabled {
		slog.Warn("Semantic search requested but AI is disabled",
			slog.String("request_id", requestID))
		return nil, ErrAIDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}
	if limit <= 0 {
		limit = 10
	}

	slog.Info("Performing semantic session search",
		slog.String("request_id", requestID),
		slog.String("workspace_id", workspaceID.String()),
		slog.Int("limit", limit))

	embedded, err := s.provider.EmbedText(ctx, EmbedRequest{Text: query})
	if err != nil {
		slog.Error("Query embedding failed",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	matches, err := s.embeddings.SearchSimilar(ctx, workspaceID, embedded.Embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.Similarity >= s.minSimilarity {
			filtered = append(filtered, m)
		}
	}

	slog.Info("Semantic search completed",
		slog.String("request_id", requestID),
		slog.Int("results", len(filtered)))
	return filtered, nil
}

// ClientInsight answers a question about a client using their session
// history as grounding.
func (s *Service) ClientInsight(ctx context.Context, workspaceID, clientID uuid.UUID, question string) (*InsightResponse, error) {
	requestID := s.getOrCreateRequestID(ctx)

	if !s.aiEnabled {
		slog.Warn("Client insight requested but AI is disabled",
			slog.String("request_id", requestID))
		return nil, ErrAIDisabled
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrInvalidQuestion
	}

	sessions, err := s.sessions.ListByClient(ctx, workspaceID, clientID)
	if err != nil {
		return nil, fmt.Errorf("client insight failed: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	if len(sessions) > maxInsightNotes {
		sessions = sessions[:maxInsightNotes]
	}

	notes := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		notes = append(notes, sess.NoteText())
	}

	slog.Info("Generating client insight",
		slog.String("request_id", requestID),
		slog.String("client_id", clientID.String()),
		slog.Int("context_notes", len(notes)))

	resp, err := s.provider.GenerateInsight(ctx, InsightRequest{
		ClientID: clientID,
		Question: question,
		Context:  notes,
	})
	if err != nil {
		slog.Error("Insight generation failed",
			slog.String("request_id", requestID),
			slog.String("client_id", clientID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("client insight failed: %w", err)
	}

	slog.Info("Client insight generated",
		slog.String("request_id", requestID),
		slog.String("model", resp.Model),
		slog.Int("answer_length", len(resp.Text)))
	return resp, nil
}

// Health reports the provider's health including breaker states.
func (s *Service) Health(ctx context.Context) (*HealthStatus, error) {
	if !s.aiEnabled {
		return &HealthStatus{
			Healthy: false,
			Message: "AI features are disabled",
		}, nil
	}
	return s.provider.Health(ctx)
}

// getOrCreateRequestID extracts the request ID from context, generating one
// when absent so async log lines stay correlated.
func (s *Service) getOrCreateRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
