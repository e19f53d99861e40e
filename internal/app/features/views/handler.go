// internal/app/features/views/handler.go
package views

import (
	"encoding/json"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the research article view counter.
type Handler struct {
	Repo   *content.Repository
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a view counter Handler.
func NewHandler(repo *content.Repository, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:   repo,
		Log:    logger,
		ErrLog: errLog,
	}
}

type viewsResponse struct {
	Slug    string `json:"slug"`
	Views   int64  `json:"views"`
	Success *bool  `json:"success,omitempty"`
}

type incrementRequest struct {
	Slug string `json:"slug"`
}

// Get handles GET /api/research/views?slug=.
// It never fails because of the store: a missing counter or an
// unreachable store reads as 0.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug := normalize.QueryParam(r.URL.Query().Get("slug"))
	if slug == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "Missing slug")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "view count read")
	defer cancel()
	uierrors.WriteJSON(w, http.StatusOK, viewsResponse{
		Slug:  slug,
		Views: h.Repo.Views(ctx, slug),
	})
}

// Increment handles POST /api/research/views with body {"slug": "..."}.
// It returns the new count, 400 without a slug and 503 when the store
// is unreachable.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && err != io.EOF {
		uierrors.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	slug := normalize.QueryParam(req.Slug)
	if slug == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "Missing slug")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "view increment")
	defer cancel()

	n, err := h.Repo.IncrementViews(ctx, slug)
	if err != nil {
		h.ErrLog.Respond(w, r, "view increment failed", err)
		return
	}
	ok := true
	uierrors.WriteJSON(w, http.StatusOK, viewsResponse{Slug: slug, Views: n, Success: &ok})
}
