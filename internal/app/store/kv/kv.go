// Package kv is the key-value store behind the content repository.
//
// A Client owns one lazily dialed Backend for the life of the process.
// Backends store opaque string values under string keys and keep a
// per-key version that increases on every write, which lets callers run
// read-modify-write cycles as compare-and-set loops instead of blind
// overwrites.
//
// Backends:
//   - mongo:  one document per key in a MongoDB collection
//   - badger: embedded BadgerDB, on disk or in memory
//   - sqlite: a single kv table in a SQLite database
//   - memory: process memory (tests and local development)
package kv

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the store could not be reached.
	ErrUnavailable = errors.New("kv: store unavailable")
	// ErrNotFound means the key does not exist.
	ErrNotFound = errors.New("kv: key not found")
	// ErrVersionConflict means a compare-and-set lost to a concurrent write.
	ErrVersionConflict = errors.New("kv: version conflict")
	// ErrNotInteger means Incr was applied to a non-integer value.
	ErrNotInteger = errors.New("kv: value is not an integer")
)

// Entry is a stored value and its version. Version 0 means "absent";
// the first write of a key produces version 1.
type Entry struct {
	Value   string
	Version int64
}

// Backend is one concrete store implementation.
//
// Every write (Set, SetIfVersion, Incr) increments the key's version.
// Implementations must be safe for concurrent use.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error

	// Get returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key, value string) error

	// SetIfVersion writes value only if the key's current version equals
	// version (0 = key must not exist). Otherwise it returns
	// ErrVersionConflict and leaves the key unchanged.
	SetIfVersion(ctx context.Context, key, value string, version int64) error

	// Incr atomically adds one to an integer value, treating a missing key
	// as 0, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error

	// Keys lists keys with the given prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close(ctx context.Context) error
}

// DialFunc opens a Backend. It is called lazily and again after failures.
type DialFunc func(ctx context.Context) (Backend, error)

// schemaEnsurer is implemented by backends that maintain indexes.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}
