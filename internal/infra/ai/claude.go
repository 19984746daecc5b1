package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// BreakerClaudeChat guards Claude completion calls.
const BreakerClaudeChat = "claude-chat"

// Claude implements insight completions using Anthropic's Claude API.
// It does not generate embeddings; wire it through NewProvider, which pairs
// it with the OpenAI adapter for embedding calls.
type Claude struct {
	client   anthropic.Client
	executor *retry.Executor
	config   *Config
	metrics  *requestMetrics
}

// NewClaude creates a new Claude provider.
func NewClaude(cfg *Config, executor *retry.Executor) *Claude {
	model := cfg.ChatModel
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	slog.Info("Initialized Claude provider",
		slog.String("chat_model", model))

	cfgCopy := *cfg
	cfgCopy.ChatModel = model

	return &Claude{
		client:   anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		executor: executor,
		config:   &cfgCopy,
		metrics:  newRequestMetricsFor("claude"),
	}
}

// EmbedText is unsupported on the Claude adapter.
func (c *Claude) EmbedText(ctx context.Context, req usecase.EmbedRequest) (*usecase.EmbedResponse, error) {
	return nil, fmt.Errorf("claude provider does not support embeddings")
}

// GenerateInsight produces a completion over the supplied session context.
func (c *Claude) GenerateInsight(ctx context.Context, req usecase.InsightRequest) (*usecase.InsightResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	policy := retry.ChatPolicy(BreakerClaudeChat)
	policy.Retryable = AnthropicClassifier

	start := time.Now()
	result, err := c.executor.Run(ctx, policy, func(ctx context.Context) (interface{}, error) {
		return c.doComplete(ctx, req)
	})
	c.metrics.observe("insight", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("claude insight failed: %w", err)
	}

	return &usecase.InsightResponse{
		Text:  result.(string),
		Model: c.config.ChatModel,
	}, nil
}

func (c *Claude) doComplete(ctx context.Context, req usecase.InsightRequest) (string, error) {
	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.ChatModel),
		MaxTokens: int64(c.config.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: insightSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildInsightPrompt(req)),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Insight completion failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	slog.InfoContext(ctx, "Insight completion finished",
		slog.Duration("duration", duration),
		slog.Int("output_length", len(textBlock.Text)))
	return textBlock.Text, nil
}

// Health reports the breaker view of the Claude dependency. No probe call
// is made: completions are too expensive to spend on liveness checks.
func (c *Claude) Health(ctx context.Context) (*usecase.HealthStatus, error) {
	states := c.executor.BreakerStates()
	open := states[BreakerClaudeChat] == "open"

	status := &usecase.HealthStatus{
		Healthy:       !open,
		BreakerStates: states,
	}
	if open {
		status.Message = "claude-chat circuit breaker open"
	}
	return status, nil
}

// Close is a no-op: the underlying HTTP client needs no teardown.
func (c *Claude) Close() error {
	return nil
}
