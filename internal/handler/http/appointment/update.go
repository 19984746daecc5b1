package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

type UpdateHandler struct{ Svc *apptUC.Service }

// ServeHTTP updates an existing appointment: reschedule, status change, or
// notes edit. Absent fields are left unchanged. Rescheduling onto an
// occupied slot yields 409 Conflict.
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	id, err := pathutil.ExtractUUID(r.URL.Path, "/appointments/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ScheduledStart *string `json:"scheduled_start"`
		ScheduledEnd   *string `json:"scheduled_end"`
		Status         *string `json:"status"`
		LocationType   *string `json:"location_type"`
		Notes          *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	in := apptUC.UpdateInput{
		WorkspaceID: workspaceID,
		ID:          id,
		Notes:       req.Notes,
	}
	if req.ScheduledStart != nil {
		start, err := time.Parse(time.RFC3339, *req.ScheduledStart)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("scheduled_start must be in RFC3339 format"))
			return
		}
		in.ScheduledStart = &start
	}
	if req.ScheduledEnd != nil {
		end, err := time.Parse(time.RFC3339, *req.ScheduledEnd)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("scheduled_end must be in RFC3339 format"))
			return
		}
		in.ScheduledEnd = &end
	}
	if req.Status != nil {
		status := entity.AppointmentStatus(*req.Status)
		in.Status = &status
	}
	if req.LocationType != nil {
		location := entity.LocationType(*req.LocationType)
		in.LocationType = &location
	}

	a, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(a))
}
