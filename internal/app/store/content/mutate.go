// internal/app/store/content/mutate.go
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"go.uber.org/zap"
)

// errNoWrite tells mutate the change is a no-op and nothing is written.
var errNoWrite = errors.New("no write")

// DeleteResult reports which identifiers a delete actually removed.
type DeleteResult struct {
	DeletedCount int      `json:"deletedCount"`
	DeletedIDs   []string `json:"deletedIds"`
}

// MergeResult reports an additive import into one collection.
type MergeResult struct {
	Added   int // new records appended
	Skipped int // incoming records whose identifier was already stored
	Kept    int // records that were in the store before the import
	Total   int // collection size afterwards
}

// mutate runs one read-modify-write cycle of a collection as a
// compare-and-set against the version it read. A concurrent writer makes
// the write fail with kv.ErrVersionConflict, and the cycle re-runs on the
// fresh value. fn may run more than once and must only depend on its input.
//
// fn sees records the way reads show them, so identifiers derived at read
// time match on write and are stored with the change.
func (r *Repository) mutate(ctx context.Context, c models.Collection, fn func([]models.Record) ([]models.Record, error)) error {
	return r.mutateKey(ctx, c, func(recs []models.Record, _ bool) ([]models.Record, error) {
		return fn(recs)
	})
}

// mutateKey is mutate for changes that depend on whether the key held a
// value at all.
func (r *Repository) mutateKey(ctx context.Context, c models.Collection, fn func(recs []models.Record, absent bool) ([]models.Record, error)) error {
	if !r.store.EnsureConnection(ctx) {
		return kv.ErrUnavailable
	}
	key := c.StoreKey(r.prefix)

	err := retry.Do(
		func() error {
			cur, ok, err := r.store.GetVersioned(ctx, key)
			if err != nil {
				return err
			}
			recs, err := decodeStored(cur.Value)
			if err != nil {
				return fmt.Errorf("decode %s: %w", c.Name, err)
			}
			normalizeRead(c, recs)
			next, err := fn(recs, !ok || cur.Value == "")
			if err != nil {
				return err
			}
			raw, err := encode(next)
			if err != nil {
				return err
			}
			return r.store.CompareAndSet(ctx, key, raw, cur.Version)
		},
		retry.Context(ctx),
		retry.Attempts(r.retries),
		retry.Delay(10*time.Millisecond),
		retry.MaxDelay(250*time.Millisecond),
		retry.MaxJitter(10*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(func(err error) bool { return errors.Is(err, kv.ErrVersionConflict) }),
		retry.OnRetry(func(n uint, err error) {
			r.log.Debug("content write raced; retrying",
				zap.String("collection", c.Name), zap.Uint("attempt", n+1))
		}),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, errNoWrite) {
		return nil
	}
	return err
}

// ReplaceAll stores recs verbatim as the whole collection. Bulk replace
// is last-writer-wins, so it does not compare versions.
func (r *Repository) ReplaceAll(ctx context.Context, name string, recs []models.Record) error {
	c, err := r.Collection(name)
	if err != nil {
		return err
	}
	if !r.store.EnsureConnection(ctx) {
		return kv.ErrUnavailable
	}
	raw, err := encode(recs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return r.store.Set(ctx, c.StoreKey(r.prefix), raw)
}

// Create appends one record. It returns the stored record and the new
// collection size, ErrValidation when the identifier (or another required
// field) is missing, and ErrConflict when the identifier is taken.
func (r *Repository) Create(ctx context.Context, name string, rec models.Record) (models.Record, int, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, 0, err
	}
	rec = rec.Clone()
	if c.SlugFromTitle && rec.String("slug") == "" {
		if title := rec.String("title"); title != "" {
			rec["slug"] = normalize.Slug(title)
		}
	}
	for _, f := range c.Required {
		if rec.String(f) == "" {
			return nil, 0, fmt.Errorf("%w: %s is required", ErrValidation, f)
		}
	}
	id := c.IDOf(rec)
	if id == "" {
		return nil, 0, fmt.Errorf("%w: %s is required", ErrValidation, c.IDField)
	}
	mirror(c, rec, id)

	var total int
	err = r.mutate(ctx, c, func(recs []models.Record) ([]models.Record, error) {
		if indexOf(c, recs, id) >= 0 {
			return nil, fmt.Errorf("%s %q: %w", c.Name, id, ErrConflict)
		}
		total = len(recs) + 1
		return append(recs, rec), nil
	})
	if err != nil {
		return nil, 0, err
	}
	return rec, total, nil
}

// Update applies one record by identifier following the collection's
// update policy and returns the record as stored.
func (r *Repository) Update(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, err
	}
	rec = rec.Clone()
	id := c.IDOf(rec)
	if id == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrValidation, c.IDField)
	}
	mirror(c, rec, id)

	var stored models.Record
	err = r.mutate(ctx, c, func(recs []models.Record) ([]models.Record, error) {
		i := indexOf(c, recs, id)
		switch c.Update {
		case models.UpdateUpsert:
			stored = rec
			if i < 0 {
				return append(recs, rec), nil
			}
		case models.UpdateReplace:
			if i < 0 {
				return nil, fmt.Errorf("%s %q: %w", c.Name, id, ErrNotFound)
			}
			stored = rec
		case models.UpdateMerge:
			if i < 0 {
				return nil, fmt.Errorf("%s %q: %w", c.Name, id, ErrNotFound)
			}
			stored = recs[i].Clone()
			if stored == nil {
				stored = models.Record{}
			}
			for k, v := range rec {
				stored[k] = v
			}
		default:
			return nil, fmt.Errorf("collection %s: unknown update policy %q", c.Name, c.Update)
		}
		recs[i] = stored
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Delete removes every record whose identifier is in ids. With single
// set, removing nothing is ErrNotFound; a batch that matches nothing
// reports a zero count and writes nothing.
func (r *Repository) Delete(ctx context.Context, name string, ids []string, single bool) (DeleteResult, error) {
	c, err := r.Collection(name)
	if err != nil {
		return DeleteResult{}, err
	}
	if len(ids) == 0 {
		return DeleteResult{}, fmt.Errorf("%w: %s is required", ErrValidation, c.IDField)
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var res DeleteResult
	err = r.mutate(ctx, c, func(recs []models.Record) ([]models.Record, error) {
		res = DeleteResult{DeletedIDs: []string{}}
		seen := map[string]bool{}
		kept := make([]models.Record, 0, len(recs))
		for _, rec := range recs {
			id := matchID(c, rec, want)
			if id == "" {
				kept = append(kept, rec)
				continue
			}
			res.DeletedCount++
			if !seen[id] {
				seen[id] = true
				res.DeletedIDs = append(res.DeletedIDs, id)
			}
		}
		if res.DeletedCount == 0 {
			if single {
				return nil, fmt.Errorf("%s %q: %w", c.Name, ids[0], ErrNotFound)
			}
			return nil, errNoWrite
		}
		return kept, nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// Merge adds incoming records whose identifiers are not stored yet. Stored
// records win; an absent collection receives incoming exactly, even when
// incoming is empty. Otherwise nothing is written when no record is added.
func (r *Repository) Merge(ctx context.Context, name string, incoming []models.Record) (MergeResult, error) {
	c, err := r.Collection(name)
	if err != nil {
		return MergeResult{}, err
	}
	var res MergeResult
	err = r.mutateKey(ctx, c, func(recs []models.Record, absent bool) ([]models.Record, error) {
		res = MergeResult{Kept: len(recs)}
		have := make(map[string]bool, len(recs))
		for _, rec := range recs {
			have[c.IDOf(rec)] = true
		}
		out := append(make([]models.Record, 0, len(recs)+len(incoming)), recs...)
		for _, rec := range incoming {
			id := c.IDOf(rec)
			if id != "" && have[id] {
				res.Skipped++
				continue
			}
			have[id] = true
			out = append(out, rec)
			res.Added++
		}
		res.Total = len(out)
		if res.Added == 0 && !absent {
			return nil, errNoWrite
		}
		return out, nil
	})
	if err != nil {
		return MergeResult{}, err
	}
	return res, nil
}

func mirror(c models.Collection, rec models.Record, id string) {
	if c.MirrorID {
		rec["id"] = id
		rec["slug"] = id
	}
}

func matchID(c models.Collection, rec models.Record, want map[string]bool) string {
	if id := c.IDOf(rec); id != "" && want[id] {
		return id
	}
	if c.MirrorID {
		if id := rec.String("id"); id != "" && want[id] {
			return id
		}
	}
	return ""
}
