// internal/app/features/storeadmin/backup.go
package storeadmin

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/tccsite/internal/app/store/backup"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Backup handles GET /api/admin/backup: a JSON snapshot of every
// collection key and view counter, served as a download.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "backup export")
	defer cancel()

	snap, err := backup.Export(ctx, h.Repo.Store(), h.Repo.KeyPrefix(), h.Env)
	if err != nil {
		h.ErrLog.Respond(w, r, "backup export failed", err)
		return
	}

	name := fmt.Sprintf("tccsite-backup-%s.json", snap.Timestamp.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", "no-store")
	if err := backup.Write(w, snap); err != nil {
		h.Log.Warn("backup write failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		return
	}
	h.Audit.BackupExported(r, snap.ID, len(snap.Data))
}
