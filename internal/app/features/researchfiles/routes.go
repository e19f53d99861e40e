// internal/app/features/researchfiles/routes.go
package researchfiles

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /research/files.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}", h.Serve)
	return r
}
