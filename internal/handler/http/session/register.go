package session

import (
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	sessionUC "github.com/yussieik/pazpaz-sub002/internal/usecase/session"
)

// Register registers all session note HTTP handlers with the given mux.
// The role permissions only grant these paths to the admin role.
func Register(mux *http.ServeMux, svc *sessionUC.Service) {
	mux.Handle("GET    /sessions", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /sessions/", auth.Authz(GetHandler{svc}))

	mux.Handle("POST   /sessions", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT    /sessions/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /sessions/", auth.Authz(DeleteHandler{svc}))
}
