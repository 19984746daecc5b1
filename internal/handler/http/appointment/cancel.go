package appointment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

type CancelHandler struct{ Svc *apptUC.Service }

// ServeHTTP cancels an appointment via POST /appointments/{id}/cancel.
// Cancelling frees the slot for rebooking but keeps the record for the
// client's history.
func (h CancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	path, found := strings.CutSuffix(r.URL.Path, "/cancel")
	if !found {
		respond.SafeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}

	id, err := pathutil.ExtractUUID(path, "/appointments/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := h.Svc.Cancel(r.Context(), workspaceID, id)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(a))
}
