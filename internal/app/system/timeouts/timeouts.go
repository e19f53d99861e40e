// Package timeouts provides centralized timeout values for store and
// network operations.
//
// These timeouts are used with context.WithTimeout in HTTP handlers,
// background workers and the CLI. Values can be set at startup with
// Configure or ConfigureFromEnv; otherwise the defaults apply.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and the store probe
//   - Read: collection reads and view-counter lookups
//   - Write: admin mutations and view increments
//   - Fetch: outbound requests for research PDFs
//   - Batch: migration, backup and restore
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing  = 2 * time.Second
	DefaultRead  = 5 * time.Second
	DefaultWrite = 10 * time.Second
	DefaultFetch = 15 * time.Second
	DefaultBatch = 2 * time.Minute
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping  = DefaultPing
	read  = DefaultRead
	write = DefaultWrite
	fetch = DefaultFetch
	batch = DefaultBatch
)

func get(d *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *d
}

// Ping returns the timeout for health checks and connectivity probes.
func Ping() time.Duration { return get(&ping) }

// Read returns the timeout for content and counter reads.
func Read() time.Duration { return get(&read) }

// Write returns the timeout for single mutations and increments.
func Write() time.Duration { return get(&write) }

// Fetch returns the timeout for outbound document fetches.
func Fetch() time.Duration { return get(&fetch) }

// Batch returns the timeout for migration, backup and restore.
func Batch() time.Duration { return get(&batch) }

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping  time.Duration
	Read  time.Duration
	Write time.Duration
	Fetch time.Duration
	Batch time.Duration
}

// Configure sets custom timeout values. Zero values keep the current value.
// Call it during startup before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set(&ping, cfg.Ping)
	set(&read, cfg.Read)
	set(&write, cfg.Write)
	set(&fetch, cfg.Fetch)
	set(&batch, cfg.Batch)
}

func set(dst *time.Duration, d time.Duration) bool {
	if d > 0 {
		*dst = d
		return true
	}
	return false
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, read, write, fetch, batch = DefaultPing, DefaultRead, DefaultWrite, DefaultFetch, DefaultBatch
}

// ConfigureFromEnv reads TCCSITE_TIMEOUT_PING, _READ, _WRITE, _FETCH and
// _BATCH (Go durations such as "500ms" or "2m"). Unset or invalid values
// are ignored. It returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0
	for name, dst := range map[string]*time.Duration{
		"TCCSITE_TIMEOUT_PING":  &ping,
		"TCCSITE_TIMEOUT_READ":  &read,
		"TCCSITE_TIMEOUT_WRITE": &write,
		"TCCSITE_TIMEOUT_FETCH": &fetch,
		"TCCSITE_TIMEOUT_BATCH": &batch,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && set(dst, d) {
			configured++
		}
	}
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Read: read, Write: write, Fetch: fetch, Batch: batch}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "content migration")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
