// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/dalemusser/tccsite/internal/app/system/workers"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store *kv.Client
	Probe *workers.StoreProbe
	Log   *zap.Logger
}

// NewHandler constructs a health Handler with the store client, the
// background probe (may be nil) and logger.
func NewHandler(store *kv.Client, probe *workers.StoreProbe, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Probe: probe,
		Log:   logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string       `json:"status"`
	Store   string       `json:"store"`
	Backend string       `json:"backend,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Probe   *probeStatus `json:"probe,omitempty"`
}

// probeStatus is a simplified probe result for the health endpoint.
type probeStatus struct {
	Healthy     bool      `json:"healthy"`
	LastChecked time.Time `json:"last_checked"`
	LastChange  time.Time `json:"last_change"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "store":"connected", "backend":"mongo" }
//
// On store failure: 503 and
//
//	{ "status":"error", "store":"disconnected", "message":"Store unavailable", "error":"…"}
//
// Content reads keep working from files while the store is down; the 503
// tells operators that writes and view counts are not.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status: "ok",
		Store:  "connected",
	}
	if h.Probe != nil {
		st := h.Probe.Status()
		if !st.LastChecked.IsZero() {
			resp.Probe = &probeStatus{
				Healthy:     st.Healthy,
				LastChecked: st.LastChecked,
				LastChange:  st.LastChange,
			}
		}
	}

	err := h.ping(ctx)
	if err != nil {
		h.Log.Error("health-check: store ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Store = "disconnected"
		resp.Message = "Store unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	resp.Backend = h.Store.BackendName()

	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) ping(ctx context.Context) error {
	if !h.Store.EnsureConnection(ctx) {
		if err := h.Store.LastError(); err != nil {
			return err
		}
		return kv.ErrUnavailable
	}
	return h.Store.Ping(ctx)
}
