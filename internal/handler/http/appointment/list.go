package appointment

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

type ListHandler struct{ Svc *apptUC.Service }

// ServeHTTP lists the workspace's appointments. An optional from/to range
// (RFC3339) bounds the scheduled start; an optional client_id restricts the
// listing to one client's history.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	q := r.URL.Query()

	var list []*entity.Appointment
	var err error

	if clientIDStr := q.Get("client_id"); clientIDStr != "" {
		clientID, parseErr := uuid.Parse(clientIDStr)
		if parseErr != nil || clientID == uuid.Nil {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid client_id: must be a valid UUID"))
			return
		}
		list, err = h.Svc.ListByClient(r.Context(), workspaceID, clientID)
	} else {
		var rng repository.AppointmentRange
		if fromStr := q.Get("from"); fromStr != "" {
			from, parseErr := time.Parse(time.RFC3339, fromStr)
			if parseErr != nil {
				respond.SafeError(w, http.StatusBadRequest,
					fmt.Errorf("invalid from date: %w", parseErr))
				return
			}
			rng.From = &from
		}
		if toStr := q.Get("to"); toStr != "" {
			to, parseErr := time.Parse(time.RFC3339, toStr)
			if parseErr != nil {
				respond.SafeError(w, http.StatusBadRequest,
					fmt.Errorf("invalid to date: %w", parseErr))
				return
			}
			rng.To = &to
		}
		if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid date range: from must be before or equal to to"))
			return
		}
		list, err = h.Svc.List(r.Context(), workspaceID, rng)
	}
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	out := make([]DTO, 0, len(list))
	for _, a := range list {
		out = append(out, toDTO(a))
	}
	respond.JSON(w, http.StatusOK, out)
}
