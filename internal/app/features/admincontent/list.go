// internal/app/features/admincontent/list.go
package admincontent

import (
	"net/http"

	"github.com/dalemusser/tccsite/internal/app/features/collections"
	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// List handles GET /api/admin/{collection}.
//
// It returns the ordered collection, or one record for ?id= / ?slug=.
// With ?source=store it returns exactly what the store holds, in storage
// order, and fails with 503 instead of falling back to the files.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "admin content read")
	defer cancel()

	name := chi.URLParam(r, "collection")
	q := r.URL.Query()

	if normalize.QueryParam(q.Get("source")) == "store" {
		recs, err := h.Repo.StoreRecords(ctx, name)
		if err != nil {
			h.ErrLog.Respond(w, r, "admin store read failed", err)
			return
		}
		w.Header().Set(collections.SourceHeader, "store")
		uierrors.WriteJSON(w, http.StatusOK, recs)
		return
	}

	id := normalize.QueryParam(q.Get("id"))
	if id == "" {
		id = normalize.QueryParam(q.Get("slug"))
	}
	if id != "" {
		rec, src, err := h.Repo.GetOne(ctx, name, id)
		if src != "" {
			w.Header().Set(collections.SourceHeader, string(src))
		}
		if err != nil {
			h.ErrLog.Respond(w, r, "admin lookup failed", err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, rec)
		return
	}

	recs, src, err := h.Repo.GetAll(ctx, name)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin read failed", err)
		return
	}
	w.Header().Set(collections.SourceHeader, string(src))
	uierrors.WriteJSON(w, http.StatusOK, recs)
}
