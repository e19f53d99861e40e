package bootstrap

import (
	"strings"
	"testing"

	"github.com/dalemusser/tccsite/internal/app/system/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func validConfig() AppConfig {
	return AppConfig{
		StoreBackend:  "memory",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "tccsite",
		BadgerDir:     "./data/badger",
		SQLitePath:    "./data/tccsite.db",
		ContentDir:    "./content",
		AuditLogAdmin: "log",
	}
}

func TestValidateConfig(t *testing.T) {
	hash, err := auth.HashToken("secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "memory backend", mutate: func(c *AppConfig) {}},
		{name: "mongo backend", mutate: func(c *AppConfig) { c.StoreBackend = "mongo" }},
		{name: "empty backend means mongo", mutate: func(c *AppConfig) { c.StoreBackend = "" }},
		{name: "badger backend", mutate: func(c *AppConfig) { c.StoreBackend = "badger" }},
		{name: "sqlite backend", mutate: func(c *AppConfig) { c.StoreBackend = "sqlite" }},
		{name: "valid token hash", mutate: func(c *AppConfig) { c.AdminTokenHash = hash }},
		{name: "audit off", mutate: func(c *AppConfig) { c.AuditLogAdmin = "off" }},
		{
			name:    "unknown backend",
			mutate:  func(c *AppConfig) { c.StoreBackend = "redis" },
			wantErr: "unknown store_backend",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *AppConfig) { c.StoreBackend = "mongo"; c.MongoURI = "postgres://nope" },
			wantErr: "invalid MongoDB URI",
		},
		{
			name:    "mongo without database",
			mutate:  func(c *AppConfig) { c.StoreBackend = "mongo"; c.MongoDatabase = " " },
			wantErr: "mongo_database is required",
		},
		{
			name:    "badger without dir",
			mutate:  func(c *AppConfig) { c.StoreBackend = "badger"; c.BadgerDir = "" },
			wantErr: "badger_dir is required",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *AppConfig) { c.StoreBackend = "sqlite"; c.SQLitePath = "" },
			wantErr: "sqlite_path is required",
		},
		{
			name:    "missing content dir",
			mutate:  func(c *AppConfig) { c.ContentDir = "" },
			wantErr: "content_dir is required",
		},
		{
			name:    "bad audit setting",
			mutate:  func(c *AppConfig) { c.AuditLogAdmin = "verbose" },
			wantErr: "audit_log_admin",
		},
		{
			name:    "plaintext token",
			mutate:  func(c *AppConfig) { c.AdminTokenHash = "secret" },
			wantErr: "not a bcrypt hash",
		},
		{
			name:    "negative retries",
			mutate:  func(c *AppConfig) { c.MutationRetries = -1 },
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestStoreConfig(t *testing.T) {
	cfg := validConfig()
	cfg.MongoCollection = "kv"

	got := storeConfig(cfg)
	if got.Backend != "memory" || got.MongoDatabase != "tccsite" || got.MongoCollection != "kv" || got.SQLitePath != cfg.SQLitePath {
		t.Errorf("storeConfig = %+v", got)
	}
}
