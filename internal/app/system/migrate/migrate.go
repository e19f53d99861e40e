// internal/app/system/migrate/migrate.go
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRunning means another migration is in progress.
var ErrRunning = errors.New("migration already running")

// State is the run-level state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateFailed     State = "failed"
)

// Step is the per-collection state.
type Step string

const (
	StepPending      Step = "pending"
	StepReadingFiles Step = "reading-files"
	StepWritingStore Step = "writing-store"
	StepDone         Step = "done"
	StepFailed       Step = "failed"
)

// Mode says what happens to records already in the store.
type Mode string

const (
	// ModeAdditive keeps stored records and appends file records with new
	// identifiers.
	ModeAdditive Mode = "additive"
	// ModeOverwrite replaces each collection with the file snapshot.
	ModeOverwrite Mode = "overwrite"
)

// Options selects what a run does.
type Options struct {
	// Force overwrites collections instead of merging into them.
	Force bool
	// Collections limits the run; empty means every collection.
	Collections []string
}

// CollectionReport is the outcome for one collection.
type CollectionReport struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	State      Step   `json:"state"`
	FailedStep Step   `json:"failedStep,omitempty"`
	FilesRead  int    `json:"filesRead"`
	Written    int    `json:"written"`
	Skipped    int    `json:"skipped"`
	Kept       int    `json:"kept"`
	Total      int    `json:"total"`
	Error      string `json:"error,omitempty"`
}

// Report is the outcome of one run.
type Report struct {
	RunID       string             `json:"runId"`
	Mode        Mode               `json:"mode"`
	State       State              `json:"state"`
	FailedStep  State              `json:"failedStep,omitempty"`
	Error       string             `json:"error,omitempty"`
	Backend     string             `json:"backend,omitempty"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Collections []CollectionReport `json:"collections"`
	// Migrated maps each completed collection to its record count.
	Migrated map[string]int `json:"migrated"`
}

// Failed returns the collections that did not finish.
func (r Report) Failed() []string {
	var out []string
	for _, c := range r.Collections {
		if c.State != StepDone {
			out = append(out, c.Collection)
		}
	}
	return out
}

// OK reports whether the run connected and every collection finished.
func (r Report) OK() bool {
	return r.State == StateConnected && len(r.Failed()) == 0
}

// Migrator copies seed documents from the content directory into the
// store. Only one run executes at a time.
type Migrator struct {
	repo        *content.Repository
	log         *zap.Logger
	concurrency int

	run   sync.Mutex
	mu    sync.Mutex
	state State
}

// New creates a Migrator over a content repository.
func New(repo *content.Repository, logger *zap.Logger) *Migrator {
	return &Migrator{repo: repo, log: logger, concurrency: 4, state: StateIdle}
}

// State returns the state of the current or last run.
func (m *Migrator) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Migrator) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run migrates the selected collections. A failed connection aborts the
// run with kv.ErrUnavailable and a report naming the failed step.
// Per-collection failures do not stop the others; they are reported in
// the Report and the returned error is nil.
func (m *Migrator) Run(ctx context.Context, opts Options) (Report, error) {
	if !m.run.TryLock() {
		return Report{}, ErrRunning
	}
	defer m.run.Unlock()

	cols, err := m.resolve(opts.Collections)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		RunID:       uuid.NewString(),
		Mode:        ModeAdditive,
		StartedAt:   time.Now().UTC(),
		Collections: make([]CollectionReport, len(cols)),
		Migrated:    map[string]int{},
	}
	if opts.Force {
		rep.Mode = ModeOverwrite
	}
	for i, c := range cols {
		rep.Collections[i] = CollectionReport{
			Collection: c.Name,
			Key:        c.StoreKey(m.repo.KeyPrefix()),
			State:      StepPending,
		}
	}
	log := m.log.With(zap.String("run_id", rep.RunID), zap.String("mode", string(rep.Mode)))

	m.setState(StateConnecting)
	rep.State = StateConnecting
	store := m.repo.Store()
	if !store.EnsureConnection(ctx) {
		m.setState(StateFailed)
		rep.State = StateFailed
		rep.FailedStep = StateConnecting
		rep.Error = "store unavailable"
		if last := store.LastError(); last != nil {
			rep.Error = last.Error()
		}
		rep.FinishedAt = time.Now().UTC()
		log.Error("migration aborted: store unavailable", zap.String("error", rep.Error))
		return rep, kv.ErrUnavailable
	}
	m.setState(StateConnected)
	rep.State = StateConnected
	rep.Backend = store.BackendName()
	log.Info("migration started", zap.Int("collections", len(cols)), zap.String("backend", rep.Backend))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range cols {
		i := i
		g.Go(func() error {
			m.migrateOne(ctx, opts.Force, &rep.Collections[i], log)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range rep.Collections {
		if c.State == StepDone {
			rep.Migrated[c.Collection] = c.Total
		}
	}
	rep.FinishedAt = time.Now().UTC()
	log.Info("migration finished",
		zap.Int("done", len(rep.Migrated)),
		zap.Strings("failed", rep.Failed()))
	return rep, nil
}

func (m *Migrator) migrateOne(ctx context.Context, force bool, cr *CollectionReport, log *zap.Logger) {
	log = log.With(zap.String("collection", cr.Collection))
	fail := func(step Step, err error) {
		cr.State = StepFailed
		cr.FailedStep = step
		cr.Error = err.Error()
		log.Error("collection migration failed", zap.String("step", string(step)), zap.Error(err))
	}

	cr.State = StepReadingFiles
	recs, err := m.repo.FileRecords(cr.Collection)
	if err != nil {
		fail(StepReadingFiles, err)
		return
	}
	cr.FilesRead = len(recs)

	cr.State = StepWritingStore
	switch {
	case force:
		if err := m.repo.ReplaceAll(ctx, cr.Collection, recs); err != nil {
			fail(StepWritingStore, err)
			return
		}
		cr.Written = len(recs)
		cr.Total = len(recs)
	default:
		res, err := m.repo.Merge(ctx, cr.Collection, recs)
		if err != nil {
			fail(StepWritingStore, err)
			return
		}
		cr.Written = res.Added
		cr.Skipped = res.Skipped
		cr.Kept = res.Kept
		cr.Total = res.Total
	}

	cr.State = StepDone
	log.Info("collection migrated",
		zap.Int("files_read", cr.FilesRead),
		zap.Int("written", cr.Written),
		zap.Int("skipped", cr.Skipped),
		zap.Int("total", cr.Total))
}

func (m *Migrator) resolve(names []string) ([]models.Collection, error) {
	if len(names) == 0 {
		return models.Collections(), nil
	}
	out := make([]models.Collection, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		c, err := m.repo.Collection(n)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
