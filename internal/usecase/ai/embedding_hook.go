package ai

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// embeddingTimeout bounds each background embedding operation so the
// goroutine cannot run indefinitely.
const embeddingTimeout = 30 * time.Second

// Prometheus metrics for the embedding hook.
var (
	embeddingPendingTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_embedding_pending_total",
			Help: "Number of pending embedding operations",
		},
	)

	embeddingProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_embedding_processed_total",
			Help: "Total embeddings processed",
		},
		[]string{"status"},
	)
)

// EmbeddingHook embeds session notes asynchronously after they are saved.
// It spawns a goroutine per session so the save path never blocks on the
// AI provider.
type EmbeddingHook struct {
	provider   Provider
	embeddings repository.SessionEmbeddingRepository
	aiEnabled  bool
}

// NewEmbeddingHook creates a new embedding hook.
func NewEmbeddingHook(provider Provider, embeddings repository.SessionEmbeddingRepository, aiEnabled bool) *EmbeddingHook {
	return &EmbeddingHook{
		provider:   provider,
		embeddings: embeddings,
		aiEnabled:  aiEnabled,
	}
}

// EmbedSessionAsync generates and stores an embedding for the session note
// in a background goroutine. It returns immediately.
//
// Failures are logged and swallowed: the session is already saved, and the
// embedding can be regenerated on the next update. The goroutine runs on a
// detached context so it survives completion of the originating request.
func (h *EmbeddingHook) EmbedSessionAsync(ctx context.Context, session *entity.Session) {
	if !h.aiEnabled {
		return
	}
	if session == nil {
		slog.Warn("Cannot embed nil session")
		return
	}
	if session.IsEmpty() {
		return
	}

	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = "unknown"
	}

	// Copy before handing off: the caller may mutate the session after we
	// return.
	snapshot := *session
	go h.embedSession(requestID, &snapshot)
}

func (h *EmbeddingHook) embedSession(requestID string, session *entity.Session) {
	embeddingPendingTotal.Inc()
	completed := false
	defer func() {
		if !completed {
			embeddingPendingTotal.Dec()
			embeddingProcessedTotal.WithLabelValues("panic").Inc()
		}
		if r := recover(); r != nil {
			slog.Error("Panic in embedding hook",
				slog.String("request_id", requestID),
				slog.String("session_id", session.ID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// Detached context: the parent request has likely completed by now.
	ctx, cancel := context.WithTimeout(context.Background(), embeddingTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Generating session note embedding",
		slog.String("request_id", requestID),
		slog.String("session_id", session.ID.String()))

	startTime := time.Now()
	resp, err := h.provider.EmbedText(ctx, EmbedRequest{
		SessionID: session.ID,
		Text:      session.NoteText(),
	})
	duration := time.Since(startTime)

	if err != nil {
		completed = true
		recordEmbeddingComplete(false)
		slog.Warn("Session embedding failed (non-blocking)",
			slog.String("request_id", requestID),
			slog.String("session_id", session.ID.String()),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return
	}

	embedding := &entity.SessionEmbedding{
		SessionID: session.ID,
		Provider:  entity.EmbeddingProvider(resp.Provider),
		Model:     resp.Model,
		Dimension: resp.Dimension,
		Embedding: resp.Embedding,
	}
	if err := h.embeddings.Upsert(ctx, embedding); err != nil {
		completed = true
		recordEmbeddingComplete(false)
		slog.Warn("Session embedding store failed (non-blocking)",
			slog.String("request_id", requestID),
			slog.String("session_id", session.ID.String()),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return
	}

	completed = true
	recordEmbeddingComplete(true)

	slog.Info("Session embedding stored",
		slog.String("request_id", requestID),
		slog.String("session_id", session.ID.String()),
		slog.Int("dimension", resp.Dimension),
		slog.Duration("duration", duration))
}

// recordEmbeddingComplete decrements the pending count and records the result.
func recordEmbeddingComplete(success bool) {
	embeddingPendingTotal.Dec()
	status := "success"
	if !success {
		status = "failure"
	}
	embeddingProcessedTotal.WithLabelValues(status).Inc()
}
