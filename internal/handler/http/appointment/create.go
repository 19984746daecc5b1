package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

type CreateHandler struct{ Svc *apptUC.Service }

// ServeHTTP books a new appointment. Double-booking an overlapping slot
// yields 409 Conflict.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	var req struct {
		ClientID       string `json:"client_id"`
		ScheduledStart string `json:"scheduled_start"`
		ScheduledEnd   string `json:"scheduled_end"`
		LocationType   string `json:"location_type"`
		Notes          string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ClientID == "" || req.ScheduledStart == "" || req.ScheduledEnd == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("client_id, scheduled_start, scheduled_end are required"))
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil || clientID == uuid.Nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid client_id: must be a valid UUID"))
		return
	}
	start, err := time.Parse(time.RFC3339, req.ScheduledStart)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("scheduled_start must be in RFC3339 format"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.ScheduledEnd)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("scheduled_end must be in RFC3339 format"))
		return
	}

	a, err := h.Svc.Create(r.Context(), apptUC.CreateInput{
		WorkspaceID:    workspaceID,
		ClientID:       clientID,
		ScheduledStart: start,
		ScheduledEnd:   end,
		LocationType:   entity.LocationType(req.LocationType),
		Notes:          req.Notes,
	})
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDTO(a))
}
