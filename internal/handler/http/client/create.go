package client

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

type CreateHandler struct{ Svc *clientUC.Service }

// ServeHTTP creates a new client in the authenticated workspace.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.WorkspaceID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errors.New("missing workspace"))
		return
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.FirstName == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("first_name is required"))
		return
	}

	c, err := h.Svc.Create(r.Context(), clientUC.CreateInput{
		WorkspaceID: workspaceID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDTO(c))
}
