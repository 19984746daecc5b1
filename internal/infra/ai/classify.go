package ai

import (
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
)

// retryableStatus reports whether an HTTP status from an AI provider is
// worth retrying. Server faults, rate limits, and request timeouts are
// transient; other 4xx responses will fail identically on every attempt.
func retryableStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

// OpenAIClassifier classifies errors from the OpenAI API.
// API errors are judged by HTTP status; anything else falls through to the
// default network classifier.
func OpenAIClassifier(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return retry.DefaultClassifier(err)
}

// AnthropicClassifier classifies errors from the Anthropic API.
func AnthropicClassifier(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	return retry.DefaultClassifier(err)
}
