// internal/app/store/kv/client.go
package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Default client tuning.
const (
	DefaultConnectTimeout = 3 * time.Second
	DefaultRetryCooldown  = 5 * time.Second
)

// Options tunes a Client.
type Options struct {
	// ConnectTimeout bounds each dial attempt (dial + ping).
	ConnectTimeout time.Duration
	// RetryCooldown is how long EnsureConnection reports "unavailable"
	// after a failed dial before it tries again. Without it every request
	// during an outage would wait out a full connect timeout.
	RetryCooldown time.Duration
	Logger        *zap.Logger
}

// Client is the process-wide handle to the store. It dials on first use,
// reuses the connection afterwards and never panics or blocks beyond
// ConnectTimeout when the store is down.
type Client struct {
	dial DialFunc
	opts Options
	log  *zap.Logger

	group singleflight.Group

	mu          sync.RWMutex
	backend     Backend
	lastFailure time.Time
	lastErr     error
}

// NewClient builds a Client around a dialer. Nothing is dialed yet.
func NewClient(dial DialFunc, opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RetryCooldown < 0 {
		opts.RetryCooldown = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{dial: dial, opts: opts, log: log}
}

// NewConnectedClient wraps an already open backend.
func NewConnectedClient(b Backend, logger *zap.Logger) *Client {
	c := NewClient(func(context.Context) (Backend, error) { return b, nil }, Options{Logger: logger})
	c.backend = b
	return c
}

// EnsureConnection dials the store if it is not connected yet and reports
// whether it is usable. It never returns an error: a failed dial is logged
// and reported as false.
func (c *Client) EnsureConnection(ctx context.Context) bool {
	return c.ensure(ctx, true) == nil
}

// ConnectWithRetry dials until it succeeds or attempts are exhausted,
// ignoring the cooldown. Intended for CLI tools that should wait for the
// store rather than degrade.
func (c *Client) ConnectWithRetry(ctx context.Context, attempts uint, delay time.Duration) error {
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error { return c.ensure(ctx, false) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("store connect attempt failed",
				zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (c *Client) ensure(ctx context.Context, honorCooldown bool) error {
	c.mu.RLock()
	b, lastFailure, lastErr := c.backend, c.lastFailure, c.lastErr
	c.mu.RUnlock()
	if b != nil {
		return nil
	}
	if honorCooldown && !lastFailure.IsZero() && time.Since(lastFailure) < c.opts.RetryCooldown {
		return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}

	_, err, _ := c.group.Do("connect", func() (any, error) {
		if cur := c.current(); cur != nil {
			return cur, nil
		}
		// The dial is shared by every waiting caller, so one request's
		// cancellation must not abort it.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.ConnectTimeout)
		defer cancel()

		nb, err := c.dial(dctx)
		if err == nil {
			if err = nb.Ping(dctx); err != nil {
				_ = nb.Close(dctx)
			}
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.lastFailure = time.Now()
			c.lastErr = err
			c.log.Warn("store connection failed", zap.Error(err))
			return nil, err
		}
		c.backend = nb
		c.lastFailure = time.Time{}
		c.lastErr = nil
		c.log.Info("store connected", zap.String("backend", nb.Name()))
		return nb, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) current() Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend
}

func (c *Client) conn(ctx context.Context) (Backend, error) {
	if err := c.ensure(ctx, true); err != nil {
		return nil, err
	}
	return c.current(), nil
}

// Connected reports whether a backend is open, without dialing.
func (c *Client) Connected() bool {
	return c.current() != nil
}

// BackendName returns the open backend's name, or "" before connecting.
func (c *Client) BackendName() string {
	if b := c.current(); b != nil {
		return b.Name()
	}
	return ""
}

// LastError returns the most recent dial error, if any.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Ping checks that the open backend still answers.
func (c *Client) Ping(ctx context.Context) error {
	b, err := c.conn(ctx)
	if err != nil {
		return err
	}
	return b.Ping(ctx)
}

// Get returns the value stored under key and whether it exists.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	e, ok, err := c.GetVersioned(ctx, key)
	return e.Value, ok, err
}

// GetVersioned returns the entry stored under key and whether it exists.
func (c *Client) GetVersioned(ctx context.Context, key string) (Entry, bool, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	e, err := b.Get(ctx, key)
	switch {
	case err == nil:
		return e, true, nil
	case isNotFound(err):
		return Entry{}, false, nil
	default:
		return Entry{}, false, fmt.Errorf("get %q: %w", key, err)
	}
}

// Set stores value under key unconditionally.
func (c *Client) Set(ctx context.Context, key, value string) error {
	b, err := c.conn(ctx)
	if err != nil {
		return err
	}
	if err := b.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// CompareAndSet stores value only if key is still at version
// (0 = key must not exist). It returns ErrVersionConflict otherwise.
func (c *Client) CompareAndSet(ctx context.Context, key, value string, version int64) error {
	b, err := c.conn(ctx)
	if err != nil {
		return err
	}
	if err := b.SetIfVersion(ctx, key, value, version); err != nil {
		return fmt.Errorf("compare-and-set %q: %w", key, err)
	}
	return nil
}

// Incr atomically increments the integer under key and returns the result.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	n, err := b.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, err)
	}
	return n, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	b, err := c.conn(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys that start with prefix.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := b.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("keys %q: %w", prefix, err)
	}
	return keys, nil
}

// EnsureSchema creates backend indexes where the backend has any. It is a
// no-op when the store is unreachable; the next startup will retry.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if !c.EnsureConnection(ctx) {
		c.log.Warn("skipping store schema setup: store unavailable")
		return nil
	}
	if se, ok := c.current().(schemaEnsurer); ok {
		return se.EnsureSchema(ctx)
	}
	return nil
}

// Close releases the backend, if one was opened.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	b := c.backend
	c.backend = nil
	c.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close(ctx)
}
