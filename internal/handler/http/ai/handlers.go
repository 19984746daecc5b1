package ai

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// maxQueryLength caps the search query and question length.
const maxQueryLength = 2000

type SearchHandler struct{ Svc *aiUC.Service }

// ServeHTTP performs semantic search over the workspace's session notes.
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Query) > maxQueryLength {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("query exceeds maximum length"))
		return
	}

	matches, err := h.Svc.SearchSessions(r.Context(), workspaceID, req.Query, req.Limit)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	out := SearchResponse{Matches: make([]SearchMatch, 0, len(matches))}
	for _, m := range matches {
		out.Matches = append(out.Matches, SearchMatch{
			SessionID:  m.SessionID.String(),
			Similarity: m.Similarity,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

type AskHandler struct{ Svc *aiUC.Service }

// ServeHTTP answers a question about a client grounded on their session
// history.
func (h AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ClientID == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("client_id is required"))
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil || clientID == uuid.Nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid client_id: must be a valid UUID"))
		return
	}
	if len(req.Question) > maxQueryLength {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("question exceeds maximum length"))
		return
	}

	insight, err := h.Svc.ClientInsight(r.Context(), workspaceID, clientID, req.Question)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, AskResponse{
		Answer: insight.Text,
		Model:  insight.Model,
	})
}
