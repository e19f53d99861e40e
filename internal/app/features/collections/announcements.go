// internal/app/features/collections/announcements.go
package collections

import "net/http"

// ServeAnnouncements handles GET /api/announcements: the announcements
// collection, newest first.
func (h *Handler) ServeAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "announcements")
}
