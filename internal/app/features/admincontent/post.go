// internal/app/features/admincontent/post.go
package admincontent

import (
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Post handles POST /api/admin/{collection}.
//
// A JSON array replaces the whole collection:
//
//	{ "success": true, "<collection>": [...], "total": N }
//
// A JSON object creates one record (400 without an identifier, 409 when
// the identifier exists):
//
//	{ "success": true, "record": {...}, "total": N }
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	if _, err := h.Repo.Collection(name); err != nil {
		h.ErrLog.Respond(w, r, "admin post failed", err)
		return
	}

	p, err := readPayload(w, r)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin post: bad payload", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "admin content write")
	defer cancel()

	if p.isList {
		if err := h.Repo.ReplaceAll(ctx, name, p.records); err != nil {
			h.ErrLog.Respond(w, r, "bulk replace failed", err)
			return
		}
		h.Log.Info("collection replaced", zap.String("collection", name), zap.Int("total", len(p.records)))
		h.Audit.ContentReplaced(r, name, len(p.records))
		uierrors.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			name:      p.records,
			"total":   len(p.records),
		})
		return
	}

	rec, total, err := h.Repo.Create(ctx, name, p.record)
	if err != nil {
		h.ErrLog.Respond(w, r, "create failed", err)
		return
	}
	c, _ := h.Repo.Collection(name)
	id := c.IDOf(rec)
	h.Log.Info("record created", zap.String("collection", name), zap.String("id", id))
	h.Audit.ContentCreated(r, name, id)
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  rec,
		"total":   total,
	})
}
