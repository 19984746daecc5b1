// Package main provides a CLI command for semantic search over session notes.
// Usage: pazpaz-ai-search --workspace <uuid> "query" [--limit N] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	pgRepo "github.com/yussieik/pazpaz-sub002/internal/infra/adapter/persistence/postgres"
	infraAI "github.com/yussieik/pazpaz-sub002/internal/infra/ai"
	"github.com/yussieik/pazpaz-sub002/internal/infra/db"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// SearchOutput represents the JSON output format for search results.
type SearchOutput struct {
	Query       string        `json:"query"`
	WorkspaceID string        `json:"workspace_id"`
	ResultCount int           `json:"result_count"`
	Matches     []MatchOutput `json:"matches"`
}

// MatchOutput represents a single session note in the search results.
type MatchOutput struct {
	SessionID   string  `json:"session_id"`
	ClientID    string  `json:"client_id,omitempty"`
	SessionDate string  `json:"session_date,omitempty"`
	Similarity  float64 `json:"similarity"`
	Excerpt     string  `json:"excerpt,omitempty"`
}

func main() {
	var (
		workspace    string
		limit        int
		outputFormat string
	)

	flag.StringVar(&workspace, "workspace", "", "Workspace UUID to search in (required)")
	flag.IntVar(&limit, "limit", 10, "Maximum number of results to return")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || workspace == "" {
		fmt.Fprintln(os.Stderr, "Error: Workspace and search query are required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: pazpaz-ai-search --workspace <uuid> \"query\" [--limit N] [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  pazpaz-ai-search --workspace 7f9c24e5-... \"lower back pain after exercise\"")
		fmt.Fprintln(os.Stderr, "  pazpaz-ai-search --workspace 7f9c24e5-... \"shoulder mobility\" --limit 20 --output json")
		os.Exit(1)
	}
	query := args[0]

	workspaceID, err := uuid.Parse(workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid workspace UUID: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger()

	aiConfig, err := infraAI.LoadConfig()
	if err != nil {
		logger.Error("failed to load AI configuration", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Failed to load AI configuration: %v\n", err)
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
	sessionRepo := pgRepo.NewSessionRepo(dbGuard)
	embeddingRepo := pgRepo.NewSessionEmbeddingRepo(dbGuard)
	aiService := aiUC.NewService(provider, sessionRepo, embeddingRepo, aiConfig.Enabled)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const maxLimit = 50
	if limit <= 0 {
		limit = 10
	}
	if limit > maxLimit {
		fmt.Fprintf(os.Stderr, "Warning: limit %d exceeds maximum %d, using %d\n", limit, maxLimit, maxLimit)
		limit = maxLimit
	}

	logger.Info("Searching session notes",
		slog.String("workspace_id", workspaceID.String()),
		slog.String("query", query),
		slog.Int("limit", limit))

	matches, err := aiService.SearchSessions(ctx, workspaceID, query, limit)
	if err != nil {
		logger.Error("search failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Search failed: %v\n", err)
		os.Exit(1)
	}

	results := resolveSessions(ctx, sessionRepo, workspaceID, matches)

	if outputFormat == "json" {
		outputJSON(query, workspaceID, results)
	} else {
		outputText(query, results)
	}
}

// resolveSessions loads the matched session notes so the output can show
// the client, date and an excerpt alongside the similarity score. A match
// whose note has been deleted since embedding is kept with the ID only.
func resolveSessions(ctx context.Context, sessions repository.SessionRepository, workspaceID uuid.UUID, matches []repository.SimilarSession) []MatchOutput {
	results := make([]MatchOutput, 0, len(matches))
	for _, m := range matches {
		out := MatchOutput{
			SessionID:  m.SessionID.String(),
			Similarity: m.Similarity,
		}
		if sess, err := sessions.Get(ctx, workspaceID, m.SessionID); err == nil && sess != nil {
			out.ClientID = sess.ClientID.String()
			out.SessionDate = sess.SessionDate.Format("2006-01-02")
			out.Excerpt = excerpt(sess.NoteText(), 160)
		}
		results = append(results, out)
	}
	return results
}

// excerpt truncates text to max runes on a best-effort word boundary.
func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// outputText prints search results in human-readable format.
func outputText(query string, results []MatchOutput) {
	fmt.Printf("Search Results for: %q\n", query)
	fmt.Printf("Results: %d\n\n", len(results))

	if len(results) == 0 {
		fmt.Println("No session notes found matching your query.")
		return
	}

	for i, m := range results {
		fmt.Printf("%d. Session %s\n", i+1, m.SessionID)
		fmt.Printf("   Similarity: %.2f%%\n", m.Similarity*100)
		if m.SessionDate != "" {
			fmt.Printf("   Date: %s\n", m.SessionDate)
		}
		if m.ClientID != "" {
			fmt.Printf("   Client: %s\n", m.ClientID)
		}
		if m.Excerpt != "" {
			fmt.Printf("   Excerpt: %s\n", m.Excerpt)
		}
		fmt.Println()
	}
}

// outputJSON prints search results in JSON format.
func outputJSON(query string, workspaceID uuid.UUID, results []MatchOutput) {
	output := SearchOutput{
		Query:       query,
		WorkspaceID: workspaceID.String(),
		ResultCount: len(results),
		Matches:     results,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
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
