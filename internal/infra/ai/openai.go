// Package ai provides the AI provider adapters for embedding generation and
// clinical insight completions. It includes adapters for OpenAI and Claude
// (Anthropic) APIs; every outbound call runs through the retry executor and
// a named circuit breaker.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// Breaker names for the OpenAI adapter. Embeddings and completions fail
// independently, so each operation class owns its breaker.
const (
	BreakerOpenAIEmbedding = "openai-embedding"
	BreakerOpenAIChat      = "openai-chat"
)

// OpenAI implements the Provider interface using OpenAI's API for both
// embeddings and insight completions.
type OpenAI struct {
	client   *openai.Client
	executor *retry.Executor
	config   *Config
	metrics  *requestMetrics
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(cfg *Config, executor *retry.Executor) *OpenAI {
	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT4oMini
	}

	slog.Info("Initialized OpenAI provider",
		slog.String("embedding_model", cfg.EmbeddingModel),
		slog.String("chat_model", model))

	cfgCopy := *cfg
	cfgCopy.ChatModel = model

	return &OpenAI{
		client:   openai.NewClient(cfg.OpenAIAPIKey),
		executor: executor,
		config:   &cfgCopy,
		metrics:  newRequestMetrics(),
	}
}

// EmbedText generates an embedding for the given text.
func (o *OpenAI) EmbedText(ctx context.Context, req usecase.EmbedRequest) (*usecase.EmbedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	policy := retry.EmbeddingPolicy()
	policy.Retryable = OpenAIClassifier

	start := time.Now()
	result, err := o.executor.Run(ctx, policy, func(ctx context.Context) (interface{}, error) {
		return o.doEmbed(ctx, req.Text)
	})
	o.metrics.observe("embed", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("openai embed failed: %w", err)
	}

	embedding := result.([]float32)
	return &usecase.EmbedResponse{
		Provider:  "openai",
		Model:     o.config.EmbeddingModel,
		Dimension: len(embedding),
		Embedding: embedding,
	}, nil
}

func (o *OpenAI) doEmbed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai api returned empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// GenerateInsight produces a completion over the supplied session context.
func (o *OpenAI) GenerateInsight(ctx context.Context, req usecase.InsightRequest) (*usecase.InsightResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	policy := retry.ChatPolicy(BreakerOpenAIChat)
	policy.Retryable = OpenAIClassifier

	start := time.Now()
	result, err := o.executor.Run(ctx, policy, func(ctx context.Context) (interface{}, error) {
		return o.doComplete(ctx, req)
	})
	o.metrics.observe("insight", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("openai insight failed: %w", err)
	}

	return &usecase.InsightResponse{
		Text:  result.(string),
		Model: o.config.ChatModel,
	}, nil
}

func (o *OpenAI) doComplete(ctx context.Context, req usecase.InsightRequest) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.ChatModel,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: insightSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildInsightPrompt(req)},
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Insight completion failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "OpenAI API returned empty response",
			slog.Duration("duration", duration))
		return "", fmt.Errorf("openai api returned empty response")
	}

	slog.InfoContext(ctx, "Insight completion finished",
		slog.Duration("duration", duration),
		slog.Int("output_length", len(resp.Choices[0].Message.Content)))
	return resp.Choices[0].Message.Content, nil
}

// Health probes the provider with a minimal embedding request.
func (o *OpenAI) Health(ctx context.Context) (*usecase.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := o.doEmbed(ctx, "ping")
	latency := time.Since(start)

	status := &usecase.HealthStatus{
		Healthy:       err == nil,
		Latency:       latency,
		BreakerStates: o.executor.BreakerStates(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status, nil
}

// Close is a no-op: the underlying HTTP client needs no teardown.
func (o *OpenAI) Close() error {
	return nil
}
