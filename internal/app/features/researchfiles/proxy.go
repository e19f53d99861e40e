// internal/app/features/researchfiles/proxy.go
package researchfiles

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// pdfSignature starts every PDF file.
var pdfSignature = []byte("%PDF")

// proxy fetches a remote document and streams it inline when it is a
// PDF. Every failure before the first byte is written redirects the
// client to the remote URL instead.
func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, slug string, u *url.URL) {
	remote := u.String()
	log := h.Log.With(zap.String("slug", slug), zap.String("url", remote))
	redirect := func() {
		http.Redirect(w, r, remote, http.StatusTemporaryRedirect)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, remote, nil)
	if err != nil {
		log.Warn("build pdf request failed", zap.Error(err))
		redirect()
		return
	}
	req.Header.Set("Accept", "application/pdf, application/octet-stream")

	res, err := h.Client.Do(req)
	if err != nil {
		log.Warn("fetch pdf failed", zap.Error(err))
		redirect()
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		log.Warn("fetch pdf: unexpected status", zap.Int("status", res.StatusCode))
		redirect()
		return
	}

	ct := strings.ToLower(res.Header.Get("Content-Type"))
	trusted := h.trusted(u.Hostname())
	if !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") && !trusted {
		log.Debug("remote file is not a pdf; redirecting", zap.String("content_type", ct))
		redirect()
		return
	}

	head := make([]byte, len(pdfSignature))
	n, err := io.ReadFull(res.Body, head)
	if n < len(head) {
		log.Warn("remote pdf too short", zap.Int("bytes", n), zap.Error(err))
		redirect()
		return
	}
	if !bytes.Equal(head, pdfSignature) {
		if !trusted {
			log.Warn("remote file lacks pdf signature", zap.String("header", fmt.Sprintf("%q", head)))
			redirect()
			return
		}
		log.Warn("trusted host file lacks pdf signature; streaming anyway", zap.String("header", fmt.Sprintf("%q", head)))
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", "public, s-maxage=3600, stale-while-revalidate=59")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", slug+".pdf"))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, io.MultiReader(bytes.NewReader(head), res.Body)); err != nil {
		log.Warn("streaming remote pdf interrupted", zap.Error(err))
	}
}
