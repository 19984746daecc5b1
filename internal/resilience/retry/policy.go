package retry

import (
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/backoff"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
)

// Policy bundles everything the executor needs to run one operation class:
// backoff parameters, the retryable-error classifier, and the optional
// circuit breaker identity.
type Policy struct {
	// Operation is the logical operation name used in logs and metrics.
	Operation string

	// Backoff controls the wait between attempts.
	Backoff backoff.Policy

	// Retryable classifies errors; nil falls back to DefaultClassifier.
	Retryable Classifier

	// BreakerName selects the circuit breaker guarding this operation
	// class. Empty means no breaker participates (pure retry).
	BreakerName string

	// Breaker is the configuration used if the named breaker does not
	// exist yet. The first policy to reach the registry wins; later
	// configs for the same name are ignored.
	Breaker circuitbreaker.Config
}

// EmbeddingPolicy returns the policy for embedding generation calls.
// Moderate retry due to cost; breaker shared by all embedding callers.
func EmbeddingPolicy() Policy {
	return Policy{
		Operation: "ai.embed",
		Backoff: backoff.Policy{
			MaxRetries:      3,
			BaseDelay:       1 * time.Second,
			MaxDelay:        10 * time.Second,
			ExponentialBase: 2.0,
			JitterFactor:    0.1,
		},
		BreakerName: "openai-embedding",
		Breaker: circuitbreaker.Config{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
		},
	}
}

// ChatPolicy returns the policy for chat completion calls. Fewer retries
// than embedding: completions are slow and expensive.
func ChatPolicy(breakerName string) Policy {
	return Policy{
		Operation: "ai.chat",
		Backoff: backoff.Policy{
			MaxRetries:      2,
			BaseDelay:       2 * time.Second,
			MaxDelay:        20 * time.Second,
			ExponentialBase: 2.0,
			JitterFactor:    0.1,
		},
		BreakerName: breakerName,
		Breaker: circuitbreaker.Config{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
		},
	}
}

// NotifyPolicy returns the policy for reminder webhook deliveries.
func NotifyPolicy() Policy {
	return Policy{
		Operation: "notify.webhook",
		Backoff: backoff.Policy{
			MaxRetries:      3,
			BaseDelay:       500 * time.Millisecond,
			MaxDelay:        5 * time.Second,
			ExponentialBase: 2.0,
			JitterFactor:    0.2,
		},
		BreakerName: "reminder-webhook",
		Breaker: circuitbreaker.Config{
			FailureThreshold: 10,
			RecoveryTimeout:  120 * time.Second,
		},
	}
}
