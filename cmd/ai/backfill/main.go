// Package main provides a CLI command for regenerating session note
// embeddings. It walks every client in a workspace and re-embeds each
// note, which is needed after enabling AI on an existing workspace or
// after switching embedding models.
// Usage: pazpaz-ai-backfill --workspace <uuid> [--client <uuid>] [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	pgRepo "github.com/yussieik/pazpaz-sub002/internal/infra/adapter/persistence/postgres"
	infraAI "github.com/yussieik/pazpaz-sub002/internal/infra/ai"
	"github.com/yussieik/pazpaz-sub002/internal/infra/db"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// perNoteTimeout bounds each embedding call so one slow note cannot stall
// the whole run.
const perNoteTimeout = 30 * time.Second

func main() {
	var (
		workspace string
		client    string
		dryRun    bool
	)

	flag.StringVar(&workspace, "workspace", "", "Workspace UUID (required)")
	flag.StringVar(&client, "client", "", "Restrict to a single client UUID")
	flag.BoolVar(&dryRun, "dry-run", false, "List the notes that would be embedded without calling the provider")
	flag.Parse()

	if workspace == "" {
		fmt.Fprintln(os.Stderr, "Error: Workspace is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: pazpaz-ai-backfill --workspace <uuid> [--client <uuid>] [--dry-run]")
		os.Exit(1)
	}

	workspaceID, err := uuid.Parse(workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid workspace UUID: %v\n", err)
		os.Exit(1)
	}

	var clientID *uuid.UUID
	if client != "" {
		id, err := uuid.Parse(client)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid client UUID: %v\n", err)
			os.Exit(1)
		}
		clientID = &id
	}

	logger := initLogger()

	aiConfig, err := infraAI.LoadConfig()
	if err != nil {
		logger.Error("failed to load AI configuration", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Failed to load AI configuration: %v\n", err)
		os.Exit(1)
	}
	if !aiConfig.Enabled && !dryRun {
		fmt.Fprintln(os.Stderr, "Error: AI is disabled (set AI_ENABLED=true)")
		os.Exit(1)
	}

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	registry := circuitbreaker.NewRegistry()
	executor := retry.NewExecutor(registry, retry.NewPrometheusMetrics())
	provider := infraAI.NewProvider(aiConfig, executor)
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			logger.Error("failed to close AI provider", slog.Any("error", closeErr))
		}
	}()

	dbGuard := circuitbreaker.NewDBGuard(database, circuitbreaker.DefaultDBConfig())
	clientRepo := pgRepo.NewClientRepo(dbGuard)
	sessionRepo := pgRepo.NewSessionRepo(dbGuard)
	embeddingRepo := pgRepo.NewSessionEmbeddingRepo(dbGuard)

	ctx := context.Background()

	clientIDs, err := resolveClients(ctx, clientRepo, workspaceID, clientID)
	if err != nil {
		logger.Error("failed to list clients", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Failed to list clients: %v\n", err)
		os.Exit(1)
	}

	var embedded, skipped, failed int
	for _, cid := range clientIDs {
		sessions, err := sessionRepo.ListByClient(ctx, workspaceID, cid)
		if err != nil {
			logger.Error("failed to list sessions",
				slog.String("client_id", cid.String()),
				slog.Any("error", err))
			failed++
			continue
		}

		for _, sess := range sessions {
			if sess.IsEmpty() {
				skipped++
				continue
			}
			if dryRun {
				fmt.Printf("would embed session %s (client %s, %s)\n",
					sess.ID, cid, sess.SessionDate.Format("2006-01-02"))
				embedded++
				continue
			}
			if err := embedOne(ctx, provider, embeddingRepo, sess); err != nil {
				logger.Warn("embedding failed",
					slog.String("session_id", sess.ID.String()),
					slog.Any("error", err))
				failed++
				continue
			}
			embedded++
		}
	}

	fmt.Printf("Backfill complete: %d embedded, %d skipped, %d failed\n", embedded, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveClients returns the client IDs to process: the single requested
// client, or every client in the workspace.
func resolveClients(ctx context.Context, clients repository.ClientRepository, workspaceID uuid.UUID, clientID *uuid.UUID) ([]uuid.UUID, error) {
	if clientID != nil {
		return []uuid.UUID{*clientID}, nil
	}
	all, err := clients.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// embedOne embeds a single session note and upserts the result.
func embedOne(ctx context.Context, provider aiUC.Provider, embeddings repository.SessionEmbeddingRepository, sess *entity.Session) error {
	noteCtx, cancel := context.WithTimeout(ctx, perNoteTimeout)
	defer cancel()

	resp, err := provider.EmbedText(noteCtx, aiUC.EmbedRequest{
		SessionID: sess.ID,
		Text:      sess.NoteText(),
	})
	if err != nil {
		return fmt.Errorf("embed session %s: %w", sess.ID, err)
	}

	embedding := &entity.SessionEmbedding{
		SessionID: sess.ID,
		Provider:  entity.EmbeddingProvider(resp.Provider),
		Model:     resp.Model,
		Dimension: resp.Dimension,
		Embedding: resp.Embedding,
	}
	if err := embeddings.Upsert(noteCtx, embedding); err != nil {
		return fmt.Errorf("store embedding for session %s: %w", sess.ID, err)
	}
	return nil
}

// initLogger initializes and returns a structured logger.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
