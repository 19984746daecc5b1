package ai

import (
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// Register registers the AI HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc *aiUC.Service) {
	mux.Handle("POST   /ai/search", auth.Authz(SearchHandler{svc}))
	mux.Handle("POST   /ai/ask", auth.Authz(AskHandler{svc}))
}
