// Package main provides a CLI command for AI insights over a client's
// session note history.
// Usage: pazpaz-ai-ask --workspace <uuid> --client <uuid> "question" [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	pgRepo "github.com/yussieik/pazpaz-sub002/internal/infra/adapter/persistence/postgres"
	infraAI "github.com/yussieik/pazpaz-sub002/internal/infra/ai"
	"github.com/yussieik/pazpaz-sub002/internal/infra/db"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// AskOutput represents the JSON output format for insight results.
type AskOutput struct {
	WorkspaceID string `json:"workspace_id"`
	ClientID    string `json:"client_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Model       string `json:"model"`
}

func main() {
	var (
		workspace    string
		client       string
		outputFormat string
	)

	flag.StringVar(&workspace, "workspace", "", "Workspace UUID (required)")
	flag.StringVar(&client, "client", "", "Client UUID whose notes to answer from (required)")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || workspace == "" || client == "" {
		fmt.Fprintln(os.Stderr, "Error: Workspace, client and question are required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: pazpaz-ai-ask --workspace <uuid> --client <uuid> \"question\" [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  pazpaz-ai-ask --workspace 7f9c24e5-... --client 2b1e6c7d-... \"How has the knee pain progressed?\"")
		fmt.Fprintln(os.Stderr, "  pazpaz-ai-ask --workspace 7f9c24e5-... --client 2b1e6c7d-... \"Summarize the treatment so far\" --output json")
		os.Exit(1)
	}
	question := args[0]

	workspaceID, err := uuid.Parse(workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid workspace UUID: %v\n", err)
		os.Exit(1)
	}
	clientID, err := uuid.Parse(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid client UUID: %v\n", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger.Info("Generating client insight",
		slog.String("workspace_id", workspaceID.String()),
		slog.String("client_id", clientID.String()))

	resp, err := aiService.ClientInsight(ctx, workspaceID, clientID, question)
	if err != nil {
		logger.Error("insight generation failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Insight generation failed: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		outputJSON(workspaceID, clientID, question, resp)
	} else {
		outputText(question, resp)
	}
}

// outputText prints the insight in human-readable format.
func outputText(question string, resp *aiUC.InsightResponse) {
	fmt.Printf("Question: %s\n\n", question)
	fmt.Printf("Answer:\n%s\n\n", resp.Text)
	fmt.Printf("Model: %s\n", resp.Model)
}

// outputJSON prints the insight in JSON format.
func outputJSON(workspaceID, clientID uuid.UUID, question string, resp *aiUC.InsightResponse) {
	output := AskOutput{
		WorkspaceID: workspaceID.String(),
		ClientID:    clientID.String(),
		Question:    question,
		Answer:      resp.Text,
		Model:       resp.Model,
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
