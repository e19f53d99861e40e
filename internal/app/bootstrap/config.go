// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for the content service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_backend, mongo_uri, etc.
//   - Environment variables: TCCSITE_STORE_BACKEND, TCCSITE_MONGO_URI, etc.
//   - Command-line flags: --store_backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	// Key-value store
	{Name: "store_backend", Default: kv.BackendMongo, Desc: "Store backend: 'mongo', 'badger', 'sqlite' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "tccsite", Desc: "MongoDB database name"},
	{Name: "mongo_collection", Default: kv.DefaultMongoCollection, Desc: "MongoDB collection holding store keys"},
	{Name: "badger_dir", Default: "./data/badger", Desc: "BadgerDB directory (store_backend=badger)"},
	{Name: "sqlite_path", Default: "./data/tccsite.db", Desc: "SQLite database file (store_backend=sqlite)"},
	{Name: "key_prefix", Default: "", Desc: "Prefix prepended to every store key (e.g., 'tcc:')"},
	{Name: "store_connect_timeout", Default: "3s", Desc: "Timeout for one store connection attempt"},
	{Name: "store_retry_cooldown", Default: "5s", Desc: "Wait after a failed connection before dialing again"},

	// Content
	{Name: "content_dir", Default: "./content", Desc: "Root directory of the markdown collections"},
	{Name: "mutation_retries", Default: 5, Desc: "Compare-and-set attempts per admin mutation"},

	// Admin API
	{Name: "admin_token_hash", Default: "", Desc: "bcrypt hash of the admin bearer token (empty disables the admin API)"},
	{Name: "audit_log_admin", Default: auditlog.SettingLog, Desc: "Admin event logging: 'log' or 'off'"},

	// View counter
	{Name: "views_rate_limit", Default: 30, Desc: "View increments per client IP per minute (0 disables)"},
	{Name: "views_rate_burst", Default: 10, Desc: "Burst size for view increments"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Rate limit by X-Forwarded-For/X-Real-IP (enable only behind a proxy that overwrites them)"},

	// Research PDFs
	{Name: "pdf_trusted_hosts", Default: "res.cloudinary.com", Desc: "Comma-separated hosts streamed without a PDF signature check"},
	{Name: "pdf_fetch_timeout", Default: "15s", Desc: "Timeout for connecting to and awaiting a remote PDF"},

	// Background workers
	{Name: "health_probe_interval", Default: "30s", Desc: "Store health probe interval"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TCCSITE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TCCSITE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		// Key-value store
		StoreBackend:        strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoCollection:     appValues.String("mongo_collection"),
		BadgerDir:           appValues.String("badger_dir"),
		SQLitePath:          appValues.String("sqlite_path"),
		KeyPrefix:           appValues.String("key_prefix"),
		StoreConnectTimeout: appValues.Duration("store_connect_timeout", kv.DefaultConnectTimeout),
		StoreRetryCooldown:  appValues.Duration("store_retry_cooldown", kv.DefaultRetryCooldown),

		// Content
		ContentDir:      appValues.String("content_dir"),
		MutationRetries: appValues.Int("mutation_retries"),

		// Admin API
		AdminTokenHash: appValues.String("admin_token_hash"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),

		// View counter
		ViewsRateLimit:    appValues.Int("views_rate_limit"),
		ViewsRateBurst:    appValues.Int("views_rate_burst"),
		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		// Research PDFs
		PDFTrustedHosts: normalize.IDList(appValues.String("pdf_trusted_hosts")),
		PDFFetchTimeout: appValues.Duration("pdf_fetch_timeout", 15*time.Second),

		// Background workers
		HealthProbeInterval: appValues.Duration("health_probe_interval", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI is only checked when Mongo is the selected backend. A
// missing admin token hash is allowed but leaves the admin API closed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case kv.BackendMongo, "":
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required when store_backend is %q", kv.BackendMongo)
		}
	case kv.BackendBadger:
		if strings.TrimSpace(appCfg.BadgerDir) == "" {
			return fmt.Errorf("badger_dir is required when store_backend is %q", kv.BackendBadger)
		}
	case kv.BackendSQLite:
		if strings.TrimSpace(appCfg.SQLitePath) == "" {
			return fmt.Errorf("sqlite_path is required when store_backend is %q", kv.BackendSQLite)
		}
	case kv.BackendMemory:
		logger.Warn("using the in-memory store; content edits and view counts are lost on restart")
	default:
		return fmt.Errorf("unknown store_backend %q (want mongo, badger, sqlite or memory)", appCfg.StoreBackend)
	}

	if strings.TrimSpace(appCfg.ContentDir) == "" {
		return fmt.Errorf("content_dir is required")
	}

	switch appCfg.AuditLogAdmin {
	case "", auditlog.SettingLog, auditlog.SettingAll, auditlog.SettingOff:
	default:
		return fmt.Errorf("audit_log_admin must be 'log' or 'off', got %q", appCfg.AuditLogAdmin)
	}

	if appCfg.AdminTokenHash == "" {
		logger.Warn("admin_token_hash is not set; the admin API will reject every request")
	} else if _, err := bcrypt.Cost([]byte(appCfg.AdminTokenHash)); err != nil {
		return fmt.Errorf("admin_token_hash is not a bcrypt hash: %w", err)
	}

	if appCfg.MutationRetries < 0 || appCfg.ViewsRateLimit < 0 || appCfg.ViewsRateBurst < 0 {
		return fmt.Errorf("mutation_retries, views_rate_limit and views_rate_burst must not be negative")
	}

	return nil
}

// storeConfig maps the app config onto the kv backend config.
func storeConfig(appCfg AppConfig) kv.Config {
	return kv.Config{
		Backend:         appCfg.StoreBackend,
		MongoURI:        appCfg.MongoURI,
		MongoDatabase:   appCfg.MongoDatabase,
		MongoCollection: appCfg.MongoCollection,
		BadgerDir:       appCfg.BadgerDir,
		SQLitePath:      appCfg.SQLitePath,
	}
}
