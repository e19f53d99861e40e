// internal/app/store/backup/backup.go
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"github.com/google/uuid"
)

var null = json.RawMessage("null")

// Snapshot is a point-in-time copy of the content keys.
//
// Each data entry is the stored value parsed as JSON when it parses, the
// raw value as a JSON string when it does not, and null when the key was
// absent.
type Snapshot struct {
	ID          string                     `json:"id"`
	Timestamp   time.Time                  `json:"timestamp"`
	Environment string                     `json:"environment,omitempty"`
	Backend     string                     `json:"backend"`
	Data        map[string]json.RawMessage `json:"data"`
}

// Result lists what a restore wrote and what it skipped.
type Result struct {
	Restored []string `json:"restored"`
	Skipped  []string `json:"skipped"`
}

// Keys returns the snapshot's keys in order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Data))
	for k := range s.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export copies every collection key and every view counter.
func Export(ctx context.Context, store *kv.Client, prefix, env string) (Snapshot, error) {
	if !store.EnsureConnection(ctx) {
		return Snapshot{}, kv.ErrUnavailable
	}
	snap := Snapshot{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Environment: env,
		Backend:     store.BackendName(),
		Data:        map[string]json.RawMessage{},
	}

	keys := make([]string, 0, len(models.CollectionNames()))
	for _, c := range models.Collections() {
		keys = append(keys, c.StoreKey(prefix))
	}
	counters, err := store.Keys(ctx, prefix+models.ViewCounterPrefix)
	if err != nil {
		return Snapshot{}, err
	}
	keys = append(keys, counters...)

	for _, key := range keys {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Data[key] = encodeValue(raw, ok)
	}
	return snap, nil
}

// Restore writes every non-null entry back to the store, overwriting
// current values.
func Restore(ctx context.Context, store *kv.Client, snap Snapshot) (Result, error) {
	if !store.EnsureConnection(ctx) {
		return Result{}, kv.ErrUnavailable
	}
	res := Result{Restored: []string{}, Skipped: []string{}}
	for _, key := range snap.Keys() {
		msg := snap.Data[key]
		if len(msg) == 0 || string(msg) == string(null) {
			res.Skipped = append(res.Skipped, key)
			continue
		}
		value, err := decodeValue(msg)
		if err != nil {
			return res, fmt.Errorf("restore %s: %w", key, err)
		}
		if err := store.Set(ctx, key, value); err != nil {
			return res, err
		}
		res.Restored = append(res.Restored, key)
	}
	return res, nil
}

// Write encodes the snapshot as indented JSON.
func Write(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Data == nil {
		return Snapshot{}, errors.New("decode snapshot: no data")
	}
	return snap, nil
}

func encodeValue(raw string, ok bool) json.RawMessage {
	if !ok {
		return null
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(raw)
	return b
}

// decodeValue turns a snapshot entry back into the stored string: JSON
// strings are stored unquoted, everything else as its JSON text.
func decodeValue(msg json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s, nil
	}
	if !json.Valid(msg) {
		return "", errors.New("invalid JSON")
	}
	return string(msg), nil
}
