package ai

import (
	"context"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// NewProvider builds the Provider selected by the configuration.
// Disabled configs return the noop provider. Embeddings always go through
// OpenAI; the claude insight provider pairs Claude completions with OpenAI
// embeddings.
func NewProvider(cfg *Config, executor *retry.Executor) usecase.Provider {
	if !cfg.Enabled {
		return NewNoopProvider()
	}

	oa := NewOpenAI(cfg, executor)
	if cfg.InsightProvider == "claude" {
		return &splitProvider{
			embedder:  oa,
			insighter: NewClaude(cfg, executor),
		}
	}
	return oa
}

// splitProvider routes embedding calls and insight calls to different
// backends.
type splitProvider struct {
	embedder  usecase.Provider
	insighter usecase.Provider
}

func (s *splitProvider) EmbedText(ctx context.Context, req usecase.EmbedRequest) (*usecase.EmbedResponse, error) {
	return s.embedder.EmbedText(ctx, req)
}

func (s *splitProvider) GenerateInsight(ctx context.Context, req usecase.InsightRequest) (*usecase.InsightResponse, error) {
	return s.insighter.GenerateInsight(ctx, req)
}

// Health merges both backends: the provider is healthy only when both are.
func (s *splitProvider) Health(ctx context.Context) (*usecase.HealthStatus, error) {
	embed, err := s.embedder.Health(ctx)
	if err != nil {
		return nil, err
	}
	insight, err := s.insighter.Health(ctx)
	if err != nil {
		return nil, err
	}

	status := &usecase.HealthStatus{
		Healthy:       embed.Healthy && insight.Healthy,
		Latency:       embed.Latency,
		BreakerStates: insight.BreakerStates,
	}
	switch {
	case !embed.Healthy:
		status.Message = embed.Message
	case !insight.Healthy:
		status.Message = insight.Message
	}
	return status, nil
}

func (s *splitProvider) Close() error {
	if err := s.embedder.Close(); err != nil {
		return err
	}
	return s.insighter.Close()
}
