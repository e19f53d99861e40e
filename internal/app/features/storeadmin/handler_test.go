package storeadmin_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/features/storeadmin"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"github.com/dalemusser/tccsite/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var seedFiles = map[string]string{
	"programs/intro-to-law.md":   "---\ntitle: Intro to Law\n---\n",
	"programs/advanced-torts.md": "---\ntitle: Advanced Torts\n---\n",
	"gallery/photo-1.md":         "---\ncaption: One\n---\n",
}

func newTestRouter(t *testing.T, store *kv.Client, files map[string]string) chi.Router {
	t.Helper()
	logger := zap.NewNop()
	repo := content.New(store, testutil.ContentDir(t, files), content.Options{}, logger)
	h := storeadmin.NewHandler(repo, migrate.New(repo, logger), "test", nil, uierrors.NewErrorLogger(logger), logger)
	r := chi.NewRouter()
	storeadmin.MountRoutes(r, h)
	return r
}

type migrateResp struct {
	Success     bool                       `json:"success"`
	State       string                     `json:"state"`
	FailedStep  string                     `json:"failedStep"`
	Mode        string                     `json:"mode"`
	Collections []migrate.CollectionReport `json:"collections"`
	Migrated    map[string]int             `json:"migrated"`
}

func TestMigrate_PopulatesStore(t *testing.T) {
	store := testutil.MemoryStore(t)
	r := newTestRouter(t, store, seedFiles)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate"))

	rec.AssertStatus(t, http.StatusOK)
	var resp migrateResp
	rec.DecodeJSON(t, &resp)
	if !resp.Success || resp.Mode != "additive" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Migrated["programs"] != 2 || resp.Migrated["gallery"] != 1 {
		t.Errorf("migrated = %v", resp.Migrated)
	}
	var recs []models.Record
	if !testutil.Stored(t, store, "programs", &recs) || len(recs) != 2 {
		t.Errorf("programs stored = %v", recs)
	}
}

func TestMigrate_ForceAndCollections(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "programs", []map[string]any{{"slug": "edited", "id": "edited"}})
	r := newTestRouter(t, store, seedFiles)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate?force=true&collections=programs"))

	rec.AssertStatus(t, http.StatusOK)
	var resp migrateResp
	rec.DecodeJSON(t, &resp)
	if resp.Mode != "overwrite" || len(resp.Collections) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
	var recs []models.Record
	testutil.Stored(t, store, "programs", &recs)
	if len(recs) != 2 {
		t.Errorf("force should reinstate the file set, got %v", recs)
	}
}

func TestMigrate_Errors(t *testing.T) {
	t.Run("store unreachable", func(t *testing.T) {
		r := newTestRouter(t, testutil.UnreachableStore(t), seedFiles)
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate"))
		rec.AssertStatus(t, http.StatusServiceUnavailable)
		var resp migrateResp
		rec.DecodeJSON(t, &resp)
		if resp.State != "failed" || resp.FailedStep != "connecting" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("bad force", func(t *testing.T) {
		r := newTestRouter(t, testutil.MemoryStore(t), seedFiles)
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate?force=maybe"))
		rec.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("unknown collection", func(t *testing.T) {
		r := newTestRouter(t, testutil.MemoryStore(t), seedFiles)
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate?collections=users"))
		rec.AssertStatus(t, http.StatusNotFound)
	})

	t.Run("collection failure", func(t *testing.T) {
		files := map[string]string{
			"programs/ok.md":    "---\ntitle: OK\n---\n",
			"gallery/broken.md": "---\ncaption: [unterminated\n---\n",
		}
		r := newTestRouter(t, testutil.MemoryStore(t), files)
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest("POST", "/migrate"))
		rec.AssertStatus(t, http.StatusInternalServerError)
		var resp migrateResp
		rec.DecodeJSON(t, &resp)
		if resp.Success || resp.Migrated["programs"] != 1 {
			t.Errorf("partial success should be reported per collection, got %+v", resp)
		}
	})
}

func TestBackup(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "programs", []map[string]any{{"slug": "a", "id": "a"}})
	r := newTestRouter(t, store, nil)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/backup"))

	rec.AssertStatus(t, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var snap struct {
		Environment string                     `json:"environment"`
		Data        map[string]json.RawMessage `json:"data"`
	}
	rec.DecodeJSON(t, &snap)
	if snap.Environment != "test" {
		t.Errorf("environment = %q", snap.Environment)
	}
	if string(snap.Data["gallery"]) != "null" {
		t.Errorf("absent key should export as null, got %s", snap.Data["gallery"])
	}
	var progs []map[string]any
	if err := json.Unmarshal(snap.Data["programs"], &progs); err != nil || len(progs) != 1 {
		t.Errorf("programs = %s (%v)", snap.Data["programs"], err)
	}
}

func TestBackup_StoreUnreachable(t *testing.T) {
	r := newTestRouter(t, testutil.UnreachableStore(t), nil)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/backup"))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
}
