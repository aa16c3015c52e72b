package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/bookservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *bookservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/articles", h.ListArticles)
	r.Get("/articles/{id}", h.GetArticle)

	r.Get("/search", h.Search)
	r.Get("/topics", h.Topics)
	r.Get("/completeness", h.Completeness)
	r.Get("/related", h.Related)

	r.Post("/overlaps", h.Overlaps)
	r.Post("/themes", h.Themes)
	r.Post("/cluster", h.Cluster)
	r.Post("/sequence", h.Sequence)
	r.Post("/reload", h.Reload)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
