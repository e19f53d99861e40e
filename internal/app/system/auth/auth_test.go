package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"github.com/dalemusser/tccsite/internal/app/system/auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const testToken = "s3cret-admin-token"

func testHash(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashToken(testToken, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	return hash
}

func protected() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	})
}

func TestRequireAdmin(t *testing.T) {
	guard := auth.NewAdminGuard(testHash(t), nil, zap.NewNop())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + testToken, http.StatusOK},
		{"lowercase scheme", "bearer " + testToken, http.StatusOK},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic " + testToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/programs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			guard.RequireAdmin(protected()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header on 401")
			}
		})
	}
}

func TestRequireAdmin_NoHashRejectsEverything(t *testing.T) {
	guard := auth.NewAdminGuard("", nil, zap.NewNop())
	if guard.Enabled() {
		t.Fatal("guard without a hash should be disabled")
	}

	req := httptest.NewRequest("DELETE", "/api/admin/gallery", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	guard.RequireAdmin(protected()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestNewAdminGuard_InvalidHashDisables(t *testing.T) {
	guard := auth.NewAdminGuard("not-a-bcrypt-hash", nil, zap.NewNop())
	if guard.Enabled() {
		t.Error("guard with an invalid hash should be disabled")
	}
	if guard.Verify("not-a-bcrypt-hash") {
		t.Error("plain text must never verify")
	}
}

func TestRequireAdmin_AuditsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(zap.New(core), auditlog.Config{Admin: "log"})
	guard := auth.NewAdminGuard(testHash(t), audit, zap.NewNop())

	req := httptest.NewRequest("POST", "/api/admin/migrate", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	guard.RequireAdmin(protected()).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["failure_reason"]; got != "invalid bearer token" {
		t.Errorf("failure_reason: got %v", got)
	}
}

func TestHashToken_Empty(t *testing.T) {
	if _, err := auth.HashToken("  ", 0); err != auth.ErrEmptyToken {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
}
