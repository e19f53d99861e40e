// internal/app/features/admincontent/update.go
package admincontent

import (
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Update handles PUT /api/admin/{collection}.
//
// The body is one record matched by its identifier; ?id= or ?slug= fills
// the identifier when the body has none. Whether an unknown identifier is
// inserted or rejected with 404 depends on the collection.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	c, err := h.Repo.Collection(name)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin update failed", err)
		return
	}

	p, err := readPayload(w, r)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin update: bad payload", err)
		return
	}
	if p.isList {
		h.ErrLog.Respond(w, r, "admin update: bad payload",
			fmt.Errorf("%w: update takes a single record", content.ErrValidation))
		return
	}

	rec := p.record
	if c.IDOf(rec) == "" {
		q := r.URL.Query()
		id := normalize.QueryParam(q.Get("id"))
		if id == "" {
			id = normalize.QueryParam(q.Get("slug"))
		}
		if id != "" {
			rec[c.IDField] = id
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "admin content update")
	defer cancel()

	stored, err := h.Repo.Update(ctx, name, rec)
	if err != nil {
		h.ErrLog.Respond(w, r, "update failed", err)
		return
	}
	id := c.IDOf(stored)
	h.Log.Info("record updated", zap.String("collection", name), zap.String("id", id))
	h.Audit.ContentUpdated(r, name, id)
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  stored,
	})
}
