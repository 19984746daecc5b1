package ai_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/yussieik/pazpaz-sub002/internal/infra/ai"
)

func TestOpenAIClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"500 server error", &openai.APIError{HTTPStatusCode: 500}, true},
		{"503 unavailable", &openai.APIError{HTTPStatusCode: 503}, true},
		{"429 rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"408 timeout", &openai.APIError{HTTPStatusCode: 408}, true},
		{"401 unauthorized", &openai.APIError{HTTPStatusCode: 401}, false},
		{"400 bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"404 not found", &openai.APIError{HTTPStatusCode: 404}, false},
		{"wrapped api error", fmt.Errorf("embed: %w", &openai.APIError{HTTPStatusCode: 502}), true},
		{"request error 500", &openai.RequestError{HTTPStatusCode: 500}, true},
		{"request error 403", &openai.RequestError{HTTPStatusCode: 403}, false},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.OpenAIClassifier(tt.err))
		})
	}
}

func TestAnthropicClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"529 overloaded", &anthropic.Error{StatusCode: 529}, true},
		{"500 server error", &anthropic.Error{StatusCode: 500}, true},
		{"429 rate limit", &anthropic.Error{StatusCode: 429}, true},
		{"401 unauthorized", &anthropic.Error{StatusCode: 401}, false},
		{"400 bad request", &anthropic.Error{StatusCode: 400}, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.AnthropicClassifier(tt.err))
		})
	}
}
