package ai

import (
	"context"

	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// NoopProvider is a no-op implementation of the Provider interface.
// Used for testing and when AI features are disabled.
type NoopProvider struct{}

// NewNoopProvider creates a new no-op AI provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// EmbedText returns an error indicating AI is disabled.
func (p *NoopProvider) EmbedText(ctx context.Context, req usecase.EmbedRequest) (*usecase.EmbedResponse, error) {
	return nil, usecase.ErrAIDisabled
}

// GenerateInsight returns an error indicating AI is disabled.
func (p *NoopProvider) GenerateInsight(ctx context.Context, req usecase.InsightRequest) (*usecase.InsightResponse, error) {
	return nil, usecase.ErrAIDisabled
}

// Health returns unhealthy status with a descriptive message.
func (p *NoopProvider) Health(ctx context.Context) (*usecase.HealthStatus, error) {
	return &usecase.HealthStatus{
		Healthy: false,
		Message: "AI features are disabled",
	}, nil
}

// Close is a no-op for the noop provider.
func (p *NoopProvider) Close() error {
	return nil
}
