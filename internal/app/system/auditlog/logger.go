// internal/app/system/auditlog/logger.go
package auditlog

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Event categories.
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Event types.
const (
	EventAuthFailed      = "admin_auth_failed"
	EventContentReplaced = "content_replaced"
	EventContentCreated  = "content_created"
	EventContentUpdated  = "content_updated"
	EventContentDeleted  = "content_deleted"
	EventMigrationRun    = "migration_run"
	EventBackupExported  = "backup_exported"
)

// Settings for Config fields.
const (
	SettingLog = "log"
	SettingAll = "all"
	SettingOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls admin action and admin auth events: "log" (or "all")
	// writes them to the structured log, "off" disables them.
	Admin string
}

// Event is one audit record.
type Event struct {
	Category      string
	EventType     string
	Collection    string
	IDs           []string
	IP            string
	RequestID     string
	Success       bool
	FailureReason string
	Details       map[string]string
}

// Logger writes audit events to the structured log.
type Logger struct {
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(zapLog *zap.Logger, config Config) *Logger {
	return &Logger{zapLog: zapLog, config: config}
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// Enabled reports whether events of the category are recorded.
func (l *Logger) Enabled(category string) bool {
	if l == nil {
		return false
	}
	setting := SettingAll
	if category == CategoryAdmin || category == CategoryAuth {
		setting = l.config.Admin
	}
	return setting != SettingOff
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(event Event) {
	if !l.Enabled(event.Category) {
		return
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.Collection != "" {
		fields = append(fields, zap.String("collection", event.Collection))
	}
	if len(event.IDs) > 0 {
		fields = append(fields, zap.Strings("ids", event.IDs))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String("detail_"+k, event.Details[k]))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func fromRequest(r *http.Request, category, eventType string) Event {
	return Event{
		Category:  category,
		EventType: eventType,
		IP:        clientIP(r),
		RequestID: middleware.GetReqID(r.Context()),
		Success:   true,
	}
}

// --- Admin auth ---

// AuthFailed logs a rejected admin request.
func (l *Logger) AuthFailed(r *http.Request, reason string) {
	e := fromRequest(r, CategoryAuth, EventAuthFailed)
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"path": r.URL.Path, "method": r.Method}
	l.Log(e)
}

// --- Content mutations ---

// ContentReplaced logs a bulk replace of a collection.
func (l *Logger) ContentReplaced(r *http.Request, collection string, count int) {
	e := fromRequest(r, CategoryAdmin, EventContentReplaced)
	e.Collection = collection
	e.Details = map[string]string{"count": strconv.Itoa(count)}
	l.Log(e)
}

// ContentCreated logs a single-record create.
func (l *Logger) ContentCreated(r *http.Request, collection, id string) {
	e := fromRequest(r, CategoryAdmin, EventContentCreated)
	e.Collection = collection
	e.IDs = []string{id}
	l.Log(e)
}

// ContentUpdated logs a single-record update.
func (l *Logger) ContentUpdated(r *http.Request, collection, id string) {
	e := fromRequest(r, CategoryAdmin, EventContentUpdated)
	e.Collection = collection
	e.IDs = []string{id}
	l.Log(e)
}

// ContentDeleted logs a delete with the identifiers that were removed.
func (l *Logger) ContentDeleted(r *http.Request, collection string, ids []string) {
	e := fromRequest(r, CategoryAdmin, EventContentDeleted)
	e.Collection = collection
	e.IDs = ids
	e.Details = map[string]string{"count": strconv.Itoa(len(ids))}
	l.Log(e)
}

// --- Store maintenance ---

// MigrationRun logs a migration run and its outcome.
func (l *Logger) MigrationRun(r *http.Request, runID, mode string, ok bool, failed []string) {
	e := fromRequest(r, CategoryAdmin, EventMigrationRun)
	e.Success = ok
	e.IDs = failed
	e.Details = map[string]string{"run_id": runID, "mode": mode}
	if !ok {
		e.FailureReason = "one or more collections failed"
	}
	l.Log(e)
}

// BackupExported logs a backup download.
func (l *Logger) BackupExported(r *http.Request, snapshotID string, keys int) {
	e := fromRequest(r, CategoryAdmin, EventBackupExported)
	e.Details = map[string]string{"snapshot_id": snapshotID, "keys": strconv.Itoa(keys)}
	l.Log(e)
}
