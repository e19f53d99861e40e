// internal/app/features/collections/routes.go
package collections

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/content.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{collection}", h.ServeCollection)
	return r
}

// MountAnnouncements mounts the announcements shortcut on r.
func MountAnnouncements(r chi.Router, h *Handler) {
	r.Get("/api/announcements", h.ServeAnnouncements)
}
