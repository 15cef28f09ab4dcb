package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/adrbook/internal/adrservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *adrservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// ADRs.
	r.Get("/adrs", h.ListADRs)
	r.Post("/adrs", h.CreateADR)
	r.Get("/adrs/*", h.GetADR)

	// Lifecycle and relations.
	r.Get("/slug", h.GenerateSlug)
	r.Post("/supersede", h.Supersede)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
