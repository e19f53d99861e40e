// internal/app/features/admincontent/delete.go
package admincontent

import (
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// deleteResponse is the JSON body of a successful delete.
type deleteResponse struct {
	Success      bool     `json:"success"`
	DeletedCount int      `json:"deletedCount"`
	DeletedIDs   []string `json:"deletedIds"`
}

// Delete handles DELETE /api/admin/{collection}.
//
//	?id=a or ?slug=a        single: 404 when nothing matches
//	?ids=a,b or ?slugs=a,b  batch: a zero count when nothing matches
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	ids, single := deleteIDs(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "admin content delete")
	defer cancel()

	res, err := h.Repo.Delete(ctx, name, ids, single)
	if err != nil {
		h.ErrLog.Respond(w, r, "delete failed", err)
		return
	}
	if res.DeletedCount > 0 {
		h.Log.Info("records deleted", zap.String("collection", name), zap.Strings("ids", res.DeletedIDs))
		h.Audit.ContentDeleted(r, name, res.DeletedIDs)
	}
	uierrors.WriteJSON(w, http.StatusOK, deleteResponse{
		Success:      true,
		DeletedCount: res.DeletedCount,
		DeletedIDs:   res.DeletedIDs,
	})
}

// deleteIDs reads the identifiers and whether this is the single form.
// A single parameter holding a comma-separated list counts as a batch.
func deleteIDs(r *http.Request) ([]string, bool) {
	q := r.URL.Query()
	for _, key := range []string{"ids", "slugs"} {
		if ids := normalize.IDList(q.Get(key)); len(ids) > 0 {
			return ids, false
		}
	}
	for _, key := range []string{"id", "slug"} {
		if ids := normalize.IDList(q.Get(key)); len(ids) > 0 {
			return ids, len(ids) == 1
		}
	}
	return nil, true
}
