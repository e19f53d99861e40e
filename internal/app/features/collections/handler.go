// internal/app/features/collections/handler.go
package collections

import (
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SourceHeader reports whether a read was served by the store or the files.
const SourceHeader = "X-Content-Source"

// Handler serves the public, read-only content API.
type Handler struct {
	Repo   *content.Repository
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a public content Handler.
func NewHandler(repo *content.Repository, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:   repo,
		Log:    logger,
		ErrLog: errLog,
	}
}

// ServeCollection handles GET /api/content/{collection}.
//
// Without parameters it returns the ordered collection. With ?id= or
// ?slug= it returns the one matching record or 404. Store outages fall
// back to the markdown files and never fail the request.
func (h *Handler) ServeCollection(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "collection"))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "content read")
	defer cancel()

	id := lookupID(r)
	if id != "" {
		rec, src, err := h.Repo.GetOne(ctx, name, id)
		if src != "" {
			w.Header().Set(SourceHeader, string(src))
		}
		if err != nil {
			h.ErrLog.Respond(w, r, "content lookup failed", err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, rec)
		return
	}

	recs, src, err := h.Repo.GetAll(ctx, name)
	if err != nil {
		h.ErrLog.Respond(w, r, "content read failed", err)
		return
	}
	w.Header().Set(SourceHeader, string(src))
	uierrors.WriteJSON(w, http.StatusOK, recs)
}

// lookupID returns the ?id= or ?slug= parameter, id first.
func lookupID(r *http.Request) string {
	q := r.URL.Query()
	if id := normalize.QueryParam(q.Get("id")); id != "" {
		return id
	}
	return normalize.QueryParam(q.Get("slug"))
}
