// internal/app/system/auth/auth.go
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used by HashToken when none is given.
const DefaultCost = 12

// ErrEmptyToken is returned by HashToken for a blank token.
var ErrEmptyToken = errors.New("token is empty")

// AdminGuard protects admin routes with a bearer token checked against a
// bcrypt hash. A guard with no hash rejects every request.
type AdminGuard struct {
	hash  []byte
	audit *auditlog.Logger
	log   *zap.Logger
}

// NewAdminGuard builds a guard for the given bcrypt hash.
func NewAdminGuard(tokenHash string, audit *auditlog.Logger, logger *zap.Logger) *AdminGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &AdminGuard{audit: audit, log: logger}
	if h := strings.TrimSpace(tokenHash); h != "" {
		g.hash = []byte(h)
	}
	if len(g.hash) > 0 {
		if _, err := bcrypt.Cost(g.hash); err != nil {
			logger.Error("admin token hash is not a bcrypt hash; admin API disabled", zap.Error(err))
			g.hash = nil
		}
	}
	return g
}

// Enabled reports whether any token can pass the guard.
func (g *AdminGuard) Enabled() bool {
	return len(g.hash) > 0
}

// Verify reports whether token matches the configured hash.
func (g *AdminGuard) Verify(token string) bool {
	if !g.Enabled() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(token)) == nil
}

// RequireAdmin rejects requests without a valid bearer token with 401.
func (g *AdminGuard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		var reason string
		switch {
		case !g.Enabled():
			reason = "admin token not configured"
		case token == "":
			reason = "missing bearer token"
		case !g.Verify(token):
			reason = "invalid bearer token"
		}
		if reason != "" {
			g.audit.AuthFailed(r, reason)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HashToken returns the bcrypt hash to configure for token.
// A cost of 0 uses DefaultCost.
func HashToken(token string, cost int) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}
	if cost == 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
