package appointment

import (
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
)

// Register registers all appointment-related HTTP handlers with the given
// mux. Reads are available to the assistant role, writes are admin only;
// both go through the auth middleware.
func Register(mux *http.ServeMux, svc *apptUC.Service) {
	mux.Handle("GET    /appointments", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /appointments/", auth.Authz(GetHandler{svc}))

	mux.Handle("POST   /appointments", auth.Authz(CreateHandler{svc}))
	// The only POST subroute is /appointments/{id}/cancel.
	mux.Handle("POST   /appointments/", auth.Authz(CancelHandler{svc}))
	mux.Handle("PUT    /appointments/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /appointments/", auth.Authz(DeleteHandler{svc}))
}
