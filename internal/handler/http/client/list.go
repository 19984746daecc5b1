package client

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/common/pagination"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/requestid"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	"github.com/yussieik/pazpaz-sub002/internal/observability/logging"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

type ListHandler struct {
	Svc           *clientUC.Service
	PaginationCfg pagination.Config
	Logger        *slog.Logger
}

// ServeHTTP returns the workspace's clients with pagination support.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	// Get request ID for logging
	reqID := requestid.FromContext(ctx)
	logger := logging.WithRequestID(ctx, h.Logger)

	workspaceID, ok := auth.WorkspaceID(ctx)
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	// Parse pagination parameters
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		logger.Warn("Invalid pagination parameters",
			"error", err.Error(),
			"request_id", reqID)
		pagination.RecordError("validation")
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	logger.Info("Paginated client list request",
		"page", params.Page,
		"limit", params.Limit,
		"request_id", reqID)

	// Get paginated data from service
	result, err := h.Svc.ListPaginated(ctx, workspaceID, params)
	if err != nil {
		logger.Error("Failed to list clients",
			"error", err.Error(),
			"page", params.Page,
			"limit", params.Limit,
			"request_id", reqID)
		pagination.RecordError("database")
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	// Convert to DTOs
	dtos := make([]DTO, 0, len(result.Data))
	for _, c := range result.Data {
		dtos = append(dtos, toDTO(c))
	}

	// Build paginated response
	response := pagination.NewResponse(dtos, result.Pagination)

	// Record metrics
	duration := time.Since(startTime)
	pagination.RecordRequest(http.StatusOK, params.Page)
	pagination.RecordDuration("handler", duration.Seconds())
	pagination.UpdateTotalCount(result.Pagination.Total)

	logger.Info("Paginated response",
		"page", params.Page,
		"limit", params.Limit,
		"returned_count", len(dtos),
		"duration_ms", duration.Milliseconds(),
		"status", http.StatusOK,
		"request_id", reqID)

	respond.JSON(w, http.StatusOK, response)
}
