package ai

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider defines the interface for AI backend operations.
// This abstraction allows switching between backends (OpenAI, Claude, or a
// no-op stub) without changing business logic.
type Provider interface {
	// EmbedText generates an embedding vector for the given text.
	EmbedText(ctx context.Context, req EmbedRequest) (*EmbedResponse, error)

	// GenerateInsight produces a chat completion over the supplied
	// clinical context.
	GenerateInsight(ctx context.Context, req InsightRequest) (*InsightResponse, error)

	// Health returns the health status of the provider.
	Health(ctx context.Context) (*HealthStatus, error)

	// Close releases resources held by the provider.
	Close() error
}

// EmbedRequest contains the text to embed. SessionID is zero when embedding
// an ad-hoc search query rather than a stored session note.
type EmbedRequest struct {
	SessionID uuid.UUID
	Text      string
}

// EmbedResponse contains the generated embedding and its provenance.
type EmbedResponse struct {
	Provider  string
	Model     string
	Dimension int
	Embedding []float32
}

// InsightRequest contains the question and session note context for a
// clinical insight completion.
type InsightRequest struct {
	ClientID uuid.UUID
	Question string

	// Context holds session note texts supplied as grounding, most
	// recent first.
	Context []string
}

// InsightResponse contains the AI-generated insight.
type InsightResponse struct {
	Text  string
	Model string
}

// HealthStatus represents the health of an AI provider.
type HealthStatus struct {
	Healthy bool
	Latency time.Duration
	Message string

	// BreakerStates maps breaker name to its current state.
	BreakerStates map[string]string
}
