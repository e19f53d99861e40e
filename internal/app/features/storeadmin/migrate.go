// internal/app/features/storeadmin/migrate.go
package storeadmin

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
)

type migrateResponse struct {
	Success bool `json:"success"`
	migrate.Report
}

// Migrate handles POST /api/admin/migrate.
//
// Query parameters:
//
//	force=true         overwrite stored collections instead of merging
//	collections=a,b    limit the run to these collections
//
// The body is the run report. Status is 200 when every collection
// finished, 500 when some failed, 503 when the store could not be
// reached and 409 while another run is in progress.
func (h *Handler) Migrate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := migrate.Options{
		Collections: normalize.IDList(q.Get("collections")),
	}
	if v := normalize.QueryParam(q.Get("force")); v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "force must be true or false")
			return
		}
		opts.Force = force
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "content migration")
	defer cancel()

	rep, err := h.Migrator.Run(ctx, opts)
	switch {
	case errors.Is(err, kv.ErrUnavailable):
		h.Audit.MigrationRun(r, rep.RunID, string(rep.Mode), false, nil)
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, migrateResponse{Report: rep})
		return
	case err != nil:
		h.ErrLog.Respond(w, r, "migration failed", err)
		return
	}

	h.Audit.MigrationRun(r, rep.RunID, string(rep.Mode), rep.OK(), rep.Failed())
	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusInternalServerError
	}
	uierrors.WriteJSON(w, status, migrateResponse{Success: rep.OK(), Report: rep})
}
