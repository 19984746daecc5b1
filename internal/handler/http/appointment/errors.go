package appointment

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

// errorStatus maps use case errors to HTTP status codes. A scheduling
// conflict is a 409 so clients can distinguish it from validation errors.
func errorStatus(err error) int {
	var vErr *entity.ValidationError
	switch {
	case errors.Is(err, apptUC.ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, apptUC.ErrSchedulingConflict):
		return http.StatusConflict
	case errors.Is(err, apptUC.ErrInvalidAppointmentID),
		errors.Is(err, apptUC.ErrInvalidWorkspaceID),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
