// internal/app/features/storeadmin/routes.go
package storeadmin

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the maintenance endpoints on r, which the caller has
// already placed behind the admin guard at /api/admin.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/migrate", h.Migrate)
	r.Get("/backup", h.Backup)
}
