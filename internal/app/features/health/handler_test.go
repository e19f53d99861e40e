package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/tccsite/internal/app/features/health"
	"github.com/dalemusser/tccsite/internal/app/system/workers"
	"github.com/dalemusser/tccsite/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Backend string `json:"backend"`
	Error   string `json:"error"`
	Probe   *struct {
		Healthy bool `json:"healthy"`
	} `json:"probe"`
}

func TestServe_StoreConnected(t *testing.T) {
	store := testutil.MemoryStore(t)
	logger := zap.NewNop()
	probe := workers.NewStoreProbe(store, logger, time.Minute)
	probe.Check(context.Background())
	handler := health.NewHandler(store, probe, logger)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Verify content type
	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", contentType, "application/json")
	}

	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("status: got %q, want %q", response.Status, "ok")
	}
	if response.Store != "connected" {
		t.Errorf("store: got %q, want %q", response.Store, "connected")
	}
	if response.Backend != "memory" {
		t.Errorf("backend: got %q, want %q", response.Backend, "memory")
	}
	if response.Probe == nil || !response.Probe.Healthy {
		t.Errorf("probe: got %+v, want healthy", response.Probe)
	}
}

func TestServe_StoreUnreachable(t *testing.T) {
	handler := health.NewHandler(testutil.UnreachableStore(t), nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Status != "error" || response.Store != "disconnected" || response.Error == "" {
		t.Errorf("unexpected response %+v", response)
	}
}
