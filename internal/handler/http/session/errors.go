package session

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	sessionUC "github.com/yussieik/pazpaz-sub002/internal/usecase/session"
)

// errorStatus maps use case errors to HTTP status codes.
func errorStatus(err error) int {
	var vErr *entity.ValidationError
	switch {
	case errors.Is(err, sessionUC.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessionUC.ErrInvalidSessionID),
		errors.Is(err, sessionUC.ErrInvalidWorkspaceID),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
