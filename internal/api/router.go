package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

// NewRouter builds the HTTP handler for the API, metrics and homepage
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/", homepageHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Route("/api/v1", h.RegisterRoutes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeInvalidRequest, r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}
