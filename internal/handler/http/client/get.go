package client

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/pathutil"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

type GetHandler struct{ Svc *clientUC.Service }

// ServeHTTP returns a single client by ID within the workspace.
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.Svc.Get(r.Context(), workspaceID, id)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(c))
}
