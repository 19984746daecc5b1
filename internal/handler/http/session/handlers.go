package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	sessionUC "github.com/yussieik/pazpaz-sub002/internal/usecase/session"
)

type ListHandler struct{ Svc *sessionUC.Service }

// ServeHTTP lists a client's session notes, newest first. The client_id
// query param is required.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	clientIDStr := r.URL.Query().Get("client_id")
	if clientIDStr == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("client_id query param required"))
		return
	}
	clientID, err := uuid.Parse(clientIDStr)
	if err != nil || clientID == uuid.Nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid client_id: must be a valid UUID"))
		return
	}

	list, err := h.Svc.ListByClient(r.Context(), workspaceID, clientID)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetHandler struct{ Svc *sessionUC.Service }

// ServeHTTP returns a single session note by ID within the workspace.
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	id, err := pathutil.ExtractUUID(r.URL.Path, "/sessions/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := h.Svc.Get(r.Context(), workspaceID, id)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(s))
}

type CreateHandler struct{ Svc *sessionUC.Service }

// ServeHTTP records a new session note. Saving a note kicks off the
// asynchronous embedding pipeline when AI features are enabled.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	var req struct {
		ClientID      string  `json:"client_id"`
		AppointmentID *string `json:"appointment_id"`
		Subjective    string  `json:"subjective"`
		Objective     string  `json:"objective"`
		Assessment    string  `json:"assessment"`
		Plan          string  `json:"plan"`
		SessionDate   string  `json:"session_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ClientID == "" || req.SessionDate == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("client_id, session_date are required"))
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil || clientID == uuid.Nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid client_id: must be a valid UUID"))
		return
	}
	sessionDate, err := time.Parse(time.RFC3339, req.SessionDate)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("session_date must be in RFC3339 format"))
		return
	}

	var appointmentID *uuid.UUID
	if req.AppointmentID != nil && *req.AppointmentID != "" {
		id, err := uuid.Parse(*req.AppointmentID)
		if err != nil || id == uuid.Nil {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid appointment_id: must be a valid UUID"))
			return
		}
		appointmentID = &id
	}

	s, err := h.Svc.Create(r.Context(), sessionUC.CreateInput{
		WorkspaceID:   workspaceID,
		ClientID:      clientID,
		AppointmentID: appointmentID,
		Subjective:    req.Subjective,
		Objective:     req.Objective,
		Assessment:    req.Assessment,
		Plan:          req.Plan,
		SessionDate:   sessionDate,
	})
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDTO(s))
}

type UpdateHandler struct{ Svc *sessionUC.Service }

// ServeHTTP updates a session note. Absent fields are left unchanged.
// Changing note text re-embeds the session asynchronously.
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	id, err := pathutil.ExtractUUID(r.URL.Path, "/sessions/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Subjective  *string `json:"subjective"`
		Objective   *string `json:"objective"`
		Assessment  *string `json:"assessment"`
		Plan        *string `json:"plan"`
		SessionDate *string `json:"session_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	in := sessionUC.UpdateInput{
		WorkspaceID: workspaceID,
		ID:          id,
		Subjective:  req.Subjective,
		Objective:   req.Objective,
		Assessment:  req.Assessment,
		Plan:        req.Plan,
	}
	if req.SessionDate != nil {
		sessionDate, err := time.Parse(time.RFC3339, *req.SessionDate)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("session_date must be in RFC3339 format"))
			return
		}
		in.SessionDate = &sessionDate
	}

	s, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(s))
}

type DeleteHandler struct{ Svc *sessionUC.Service }

// ServeHTTP removes a session note and its embeddings.
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	id, err := pathutil.ExtractUUID(r.URL.Path, "/sessions/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Svc.Delete(r.Context(), workspaceID, id); err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
