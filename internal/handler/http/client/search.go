package client

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

// maxKeywordLength bounds the search keyword to keep LIKE queries sane.
const maxKeywordLength = 100

type SearchHandler struct{ Svc *clientUC.Service }

// ServeHTTP searches the workspace's clients by name or email.
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	kw := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if kw == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("keyword query param required"))
		return
	}
	if len(kw) > maxKeywordLength {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("keyword too long"))
		return
	}

	list, err := h.Svc.Search(r.Context(), workspaceID, kw)
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	out := make([]DTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c))
	}
	respond.JSON(w, http.StatusOK, out)
}
