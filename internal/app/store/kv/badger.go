package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Badger is a Backend on an embedded BadgerDB.
//
// Each value is stored as an 8-byte big-endian version followed by the
// payload. Writes are read-modify-write transactions; badger's optimistic
// concurrency turns a racing commit into ErrConflict, which is retried.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *zap.Logger
}

// OpenBadger opens (or creates) a badger database.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	bo := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		bo = bo.WithLogger(badgerLogger{opts.Logger.Sugar().Named("badger")})
	} else {
		bo = bo.WithLogger(nil)
	}
	bo = bo.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(16 << 20)

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Name() string { return "badger" }

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (b *Badger) Close(context.Context) error {
	return b.db.Close()
}

func (b *Badger) Get(_ context.Context, key string) (Entry, error) {
	var e Entry
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = readEntry(txn, key)
		return err
	})
	return e, err
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		cur, err := readEntry(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return writeEntry(txn, key, Entry{Value: value, Version: cur.Version + 1})
	})
}

func (b *Badger) SetIfVersion(ctx context.Context, key, value string, version int64) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		cur, err := readEntry(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if cur.Version != version {
			return ErrVersionConflict
		}
		return writeEntry(txn, key, Entry{Value: value, Version: version + 1})
	})
}

func (b *Badger) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := b.update(ctx, func(txn *badger.Txn) error {
		cur, err := readEntry(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		v, err := parseCounter(cur.Value)
		if err != nil {
			return err
		}
		n = v + 1
		return writeEntry(txn, key, Entry{Value: strconv.FormatInt(n, 10), Version: cur.Version + 1})
	})
	return n, err
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// update runs fn in a read-write transaction, retrying commits that lose
// badger's conflict detection.
func (b *Badger) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return retry.Do(
		func() error { return b.db.Update(fn) },
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(0),
		retry.RetryIf(func(err error) bool { return errors.Is(err, badger.ErrConflict) }),
		retry.LastErrorOnly(true),
	)
}

func readEntry(txn *badger.Txn, key string) (Entry, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return Entry{}, err
	}
	if len(raw) < 8 {
		return Entry{}, fmt.Errorf("badger: corrupt entry for %q", key)
	}
	return Entry{
		Version: int64(binary.BigEndian.Uint64(raw[:8])),
		Value:   string(raw[8:]),
	}, nil
}

func writeEntry(txn *badger.Txn, key string, e Entry) error {
	buf := make([]byte, 8+len(e.Value))
	binary.BigEndian.PutUint64(buf[:8], uint64(e.Version))
	copy(buf[8:], e.Value)
	return txn.Set([]byte(key), buf)
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(trimNL(f), v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(trimNL(f), v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(trimNL(f), v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(trimNL(f), v...) }

func trimNL(s string) string { return strings.TrimSuffix(s, "\n") }
