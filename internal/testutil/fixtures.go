package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/store/mdfiles"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MongoURIEnv names the variable that enables Mongo-backed tests.
const MongoURIEnv = "TCCSITE_TEST_MONGO_URI"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestContext returns a context that is canceled when the test ends.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// MemoryStore returns a connected client over an in-memory backend.
func MemoryStore(t *testing.T) *kv.Client {
	t.Helper()
	return kv.NewConnectedClient(kv.NewMemory(), zap.NewNop())
}

// BadgerStore returns a connected client over an in-memory badger database.
func BadgerStore(t *testing.T) *kv.Client {
	t.Helper()
	b, err := kv.OpenBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	c := kv.NewConnectedClient(b, zap.NewNop())
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

// UnreachableStore returns a client whose every dial fails, as if the
// store host were down.
func UnreachableStore(t *testing.T) *kv.Client {
	t.Helper()
	dial := func(context.Context) (kv.Backend, error) {
		return nil, errors.New("dial tcp 127.0.0.1:27017: connect: connection refused")
	}
	return kv.NewClient(dial, kv.Options{ConnectTimeout: time.Second, Logger: zap.NewNop()})
}

// MongoStore returns a client on a throwaway Mongo database, or skips the
// test when TCCSITE_TEST_MONGO_URI is not set.
func MongoStore(t *testing.T) *kv.Client {
	t.Helper()
	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", MongoURIEnv)
	}
	ctx := TestContext(t)
	m, err := kv.DialMongo(ctx, uri, "tccsite_test_"+uuid.NewString()[:8], kv.DefaultMongoCollection)
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := m.Ping(ctx); err != nil {
		t.Skipf("mongo not reachable: %v", err)
	}
	t.Cleanup(func() {
		_ = kv.DropMongoDatabase(context.Background(), m)
		_ = m.Close(context.Background())
	})
	return kv.NewConnectedClient(m, zap.NewNop())
}

// ContentDir writes files (path relative to the root => contents) into a
// temporary content root and returns a reader over it.
func ContentDir(t *testing.T, files map[string]string) *mdfiles.Reader {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return mdfiles.NewReader(root)
}

// Seed stores v as JSON under key.
func Seed(t *testing.T, store *kv.Client, key string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal seed for %s: %v", key, err)
	}
	if err := store.Set(context.Background(), key, string(b)); err != nil {
		t.Fatalf("failed to seed %s: %v", key, err)
	}
}

// Stored decodes the JSON value stored under key into v and reports
// whether the key exists.
func Stored(t *testing.T, store *kv.Client, key string, v any) bool {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("failed to decode %s: %v", key, err)
	}
	return true
}
