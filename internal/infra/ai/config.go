package ai

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the AI provider layer.
// Configuration is loaded from environment variables with fallback to
// defaults.
type Config struct {
	// Enabled is the feature flag for all AI operations.
	// Loaded from AI_ENABLED.
	Enabled bool

	// InsightProvider selects the chat backend: "openai" or "claude".
	// Loaded from AI_INSIGHT_PROVIDER. Embeddings always use OpenAI.
	InsightProvider string

	// OpenAIAPIKey is the OpenAI API key. Loaded from OPENAI_API_KEY.
	OpenAIAPIKey string

	// AnthropicAPIKey is the Anthropic API key. Loaded from ANTHROPIC_API_KEY.
	AnthropicAPIKey string

	// EmbeddingModel is the OpenAI embedding model identifier.
	EmbeddingModel string

	// ChatModel is the model identifier for insight completions. Applies
	// to whichever backend InsightProvider selects.
	ChatModel string

	// MaxTokens is the maximum number of tokens for a completion response.
	MaxTokens int

	// Timeout is the maximum duration for a single API call, including
	// retries.
	Timeout time.Duration
}

// Validate checks the configuration. A disabled config is always valid;
// an enabled one must carry the keys its providers need.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI is enabled")
	}
	switch c.InsightProvider {
	case "openai":
	case "claude":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the claude insight provider")
		}
	default:
		return fmt.Errorf("unknown insight provider: %s", c.InsightProvider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadConfig loads AI configuration from environment variables.
//
// Environment variables:
//   - AI_ENABLED: enable AI features (default: false)
//   - AI_INSIGHT_PROVIDER: "openai" or "claude" (default: openai)
//   - OPENAI_API_KEY, ANTHROPIC_API_KEY: provider credentials
//   - AI_MAX_TOKENS: completion token budget (default: 1024)
//   - AI_TIMEOUT: per-call timeout (default: 60s)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Enabled:         os.Getenv("AI_ENABLED") == "true",
		InsightProvider: "openai",
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		EmbeddingModel:  "text-embedding-3-small",
		ChatModel:       "",
		MaxTokens:       1024,
		Timeout:         60 * time.Second,
	}

	if provider := os.Getenv("AI_INSIGHT_PROVIDER"); provider != "" {
		cfg.InsightProvider = provider
	}

	if maxTokens := os.Getenv("AI_MAX_TOKENS"); maxTokens != "" {
		parsed, err := strconv.Atoi(maxTokens)
		if err != nil || parsed <= 0 {
			slog.Warn("Invalid AI_MAX_TOKENS, using default",
				slog.String("value", maxTokens),
				slog.Int("default", cfg.MaxTokens))
		} else {
			cfg.MaxTokens = parsed
		}
	}

	if timeout := os.Getenv("AI_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil || parsed <= 0 {
			slog.Warn("Invalid AI_TIMEOUT, using default",
				slog.String("value", timeout),
				slog.Duration("default", cfg.Timeout))
		} else {
			cfg.Timeout = parsed
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}
