// internal/app/features/researchfiles/handler.go
package researchfiles

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultTrustedHosts are streamed even when the payload lacks a PDF signature.
var DefaultTrustedHosts = []string{"res.cloudinary.com"}

// pdfField is the record field holding the document location.
const pdfField = "pdf"

// Handler serves research article attachments.
type Handler struct {
	Repo         *content.Repository
	Client       *http.Client
	TrustedHosts []string
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
}

// NewHandler constructs a research files Handler. A nil trustedHosts
// uses DefaultTrustedHosts; a non-positive timeout uses timeouts.Fetch().
// The timeout bounds dialing and the wait for response headers, not the
// body stream.
func NewHandler(repo *content.Repository, trustedHosts []string, timeout time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if trustedHosts == nil {
		trustedHosts = DefaultTrustedHosts
	}
	if timeout <= 0 {
		timeout = timeouts.Fetch()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	return &Handler{
		Repo:         repo,
		Client:       &http.Client{Transport: transport},
		TrustedHosts: trustedHosts,
		Log:          logger,
		ErrLog:       errLog,
	}
}

// Serve handles GET /research/files/{slug}.
//
// Local paths redirect to the static file. Remote documents are fetched
// and streamed inline when they look like a PDF, otherwise the client is
// redirected to the remote URL.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		uierrors.WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	rec, err := h.lookup(r, slug)
	if errors.Is(err, content.ErrNotFound) {
		uierrors.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "research file lookup failed", err)
		return
	}

	loc := strings.TrimSpace(rec.String(pdfField))
	switch {
	case loc == "":
		uierrors.WriteError(w, http.StatusNotFound, "No PDF for this article")
	case isLocalPath(loc):
		http.Redirect(w, r, loc, http.StatusTemporaryRedirect)
	default:
		u, err := url.Parse(loc)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			h.Log.Warn("research pdf location is not a usable URL",
				zap.String("slug", slug), zap.String("pdf", loc))
			uierrors.WriteError(w, http.StatusNotFound, "No PDF for this article")
			return
		}
		h.proxy(w, r, slug, u)
	}
}

// lookup finds the article through the repository and, failing that, in
// its markdown file. A file without a pdf field counts as not found.
func (h *Handler) lookup(r *http.Request, slug string) (models.Record, error) {
	rec, _, err := h.Repo.GetOne(r.Context(), "research", slug)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return nil, err
	}
	rec, err = h.Repo.FileRecord("research", slug)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			h.Log.Warn("research markdown fallback failed", zap.String("slug", slug), zap.Error(err))
			return nil, content.ErrNotFound
		}
		return nil, err
	}
	if rec.String(pdfField) == "" {
		return nil, content.ErrNotFound
	}
	return rec, nil
}

// isLocalPath reports a site-relative path; "//host" is a remote URL.
func isLocalPath(loc string) bool {
	return strings.HasPrefix(loc, "/") && !strings.HasPrefix(loc, "//")
}

// trusted reports whether host is, or is a subdomain of, a trusted host.
func (h *Handler) trusted(host string) bool {
	host = strings.ToLower(host)
	for _, t := range h.TrustedHosts {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if host == t || strings.HasSuffix(host, "."+t) {
			return true
		}
	}
	return false
}
