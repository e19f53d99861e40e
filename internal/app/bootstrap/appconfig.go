// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, CORS and request body limits.
// AppConfig is where the content service keeps everything else: where the
// key-value store lives, where the markdown seed files are, and how the
// admin API is protected.
type AppConfig struct {
	// Key-value store
	StoreBackend        string        // "mongo", "badger", "sqlite" or "memory"
	MongoURI            string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string        // Database name within MongoDB
	MongoCollection     string        // Collection holding the key-value documents
	BadgerDir           string        // BadgerDB directory
	SQLitePath          string        // SQLite database file
	KeyPrefix           string        // Prepended to every store key (legacy deployments use "tcc:")
	StoreConnectTimeout time.Duration // Bound on one dial + ping
	StoreRetryCooldown  time.Duration // How long a failed dial is remembered before retrying

	// Content
	ContentDir      string // Root of the markdown collections (programs/, research/, jobs/, ...)
	MutationRetries int    // Compare-and-set attempts per admin mutation

	// Admin API
	AdminTokenHash string // bcrypt hash of the admin bearer token; empty disables the admin API
	AuditLogAdmin  string // Admin audit events: "log" or "off"

	// View counter
	ViewsRateLimit    int  // Increments per client IP per minute (0 disables limiting)
	ViewsRateBurst    int  // Burst size for the view limiter
	TrustProxyHeaders bool // Key the limiter by X-Forwarded-For (only behind a proxy that sets it)

	// Research PDFs
	PDFTrustedHosts []string      // Hosts streamed even without a PDF signature
	PDFFetchTimeout time.Duration // Dial and response-header timeout for remote PDFs

	// Background workers
	HealthProbeInterval time.Duration // How often the store probe pings the store
}
