package client

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

type DeleteHandler struct{ Svc *clientUC.Service }

// ServeHTTP removes a client from the workspace.
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	id, err := pathutil.ExtractUUID(r.URL.Path, "/clients/")
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
