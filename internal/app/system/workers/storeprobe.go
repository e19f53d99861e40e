// internal/app/system/workers/storeprobe.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// DefaultProbeInterval is used when NewStoreProbe is given a non-positive interval.
const DefaultProbeInterval = 30 * time.Second

// Status is the last probe outcome.
type Status struct {
	Healthy     bool      `json:"healthy"`
	Backend     string    `json:"backend"`
	LastChecked time.Time `json:"last_checked"`
	LastChange  time.Time `json:"last_change"`
	Error       string    `json:"error,omitempty"`
}

// StoreProbe is a background worker that pings the key-value store and
// logs when it becomes reachable or unreachable.
type StoreProbe struct {
	store    *kv.Client
	log      *zap.Logger
	interval time.Duration

	mu      sync.RWMutex
	status  Status
	checked bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStoreProbe creates a new store probe worker.
func NewStoreProbe(store *kv.Client, logger *zap.Logger, interval time.Duration) *StoreProbe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &StoreProbe{
		store:    store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one probe immediately and then begins the background loop.
func (w *StoreProbe) Start() {
	w.Check(context.Background())
	w.wg.Add(1)
	go w.run()
	w.log.Info("store probe worker started",
		zap.Duration("interval", w.interval),
		zap.String("backend", w.store.BackendName()))
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call more than once.
func (w *StoreProbe) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("store probe worker stopped")
	})
}

func (w *StoreProbe) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check(context.Background())
		}
	}
}

// Check pings the store once and records the result.
func (w *StoreProbe) Check(ctx context.Context) Status {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), w.log, "store probe")
	defer cancel()

	var err error
	if !w.store.EnsureConnection(ctx) {
		err = w.store.LastError()
		if err == nil {
			err = kv.ErrUnavailable
		}
	} else {
		err = w.store.Ping(ctx)
	}

	now := time.Now().UTC()
	healthy := err == nil

	w.mu.Lock()
	changed := !w.checked || w.status.Healthy != healthy
	w.checked = true
	w.status.Healthy = healthy
	w.status.Backend = w.store.BackendName()
	w.status.LastChecked = now
	w.status.Error = ""
	if err != nil {
		w.status.Error = err.Error()
	}
	if changed {
		w.status.LastChange = now
	}
	st := w.status
	w.mu.Unlock()

	if changed {
		if healthy {
			w.log.Info("store reachable", zap.String("backend", st.Backend))
		} else {
			w.log.Warn("store unreachable", zap.String("backend", st.Backend), zap.Error(err))
		}
	}
	return st
}

// Status returns the most recent probe result. Before the first probe
// it reports unhealthy with a zero LastChecked.
func (w *StoreProbe) Status() Status {
	if w == nil {
		return Status{}
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Healthy reports whether the last probe reached the store.
func (w *StoreProbe) Healthy() bool {
	return w.Status().Healthy
}
