package appointment

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

type DeleteHandler struct{ Svc *apptUC.Service }

// ServeHTTP removes an appointment entirely. Prefer cancel for booked
// appointments; delete is for records created by mistake.
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Svc.Delete(r.Context(), workspaceID, id); err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
