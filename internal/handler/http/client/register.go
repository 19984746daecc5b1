package client

import (
	"log/slog"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/common/pagination"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

// Register registers all client-related HTTP handlers with the given mux.
// It sets up routes for listing, searching, creating, updating, and deleting
// clients. All routes require authentication via the auth middleware; reads
// are available to the assistant role, writes are admin only.
func Register(mux *http.ServeMux, svc *clientUC.Service, paginationCfg pagination.Config, logger *slog.Logger) {
	mux.Handle("GET    /clients", auth.Authz(ListHandler{
		Svc:           svc,
		PaginationCfg: paginationCfg,
		Logger:        logger,
	}))
	mux.Handle("GET    /clients/search", auth.Authz(SearchHandler{svc}))
	mux.Handle("GET    /clients/", auth.Authz(GetHandler{svc}))

	mux.Handle("POST   /clients", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT    /clients/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /clients/", auth.Authz(DeleteHandler{svc}))
}
