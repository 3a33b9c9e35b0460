package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eidsvag/animere/internal/studio"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *studio.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Animation runs.
	r.Post("/animations", h.Animate)
	r.Get("/animations", h.ListRuns)
	r.Get("/animations/{id}", h.GetRun)
	r.Get("/animations/{id}/artifact", h.GetArtifact)
	r.Delete("/animations/{id}", h.DeleteRun)

	// Standalone validation.
	r.Post("/validate", h.Validate)

	// Themes.
	r.Get("/themes", h.ListThemes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
