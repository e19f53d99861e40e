// internal/app/features/views/routes.go
package views

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter mounted under /api/research/views.
// limit wraps the increment endpoint only.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.With(limit).Post("/", h.Increment)
	return r
}
