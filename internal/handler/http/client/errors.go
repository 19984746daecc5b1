package client

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

// errorStatus maps use case errors to HTTP status codes.
func errorStatus(err error) int {
	var vErr *entity.ValidationError
	switch {
	case errors.Is(err, clientUC.ErrClientNotFound):
		return http.StatusNotFound
	case errors.Is(err, clientUC.ErrInvalidClientID),
		errors.Is(err, clientUC.ErrInvalidWorkspaceID),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
