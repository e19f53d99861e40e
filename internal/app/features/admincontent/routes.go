// internal/app/features/admincontent/routes.go
package admincontent

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the collection endpoints on r, which the caller has
// already placed behind the admin guard at /api/admin.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/{collection}", h.List)
	r.Post("/{collection}", h.Post)
	r.Put("/{collection}", h.Update)
	r.Delete("/{collection}", h.Delete)
}
