package kv

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by Dialer.
const (
	BackendMongo  = "mongo"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config selects and locates a backend.
type Config struct {
	Backend         string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	BadgerDir       string
	SQLitePath      string
}

// Dialer returns the DialFunc for cfg.Backend.
//
// Supported backends:
//
//	"mongo"  - MongoDB at MongoURI (default)
//	"badger" - BadgerDB in BadgerDir
//	"sqlite" - SQLite database at SQLitePath
//	"memory" - in-memory (ephemeral, for testing)
func Dialer(cfg Config, logger *zap.Logger) (DialFunc, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMongo, "":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo backend requires a URI")
		}
		return func(ctx context.Context) (Backend, error) {
			return DialMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		}, nil
	case BackendBadger:
		if cfg.BadgerDir == "" {
			return nil, fmt.Errorf("badger backend requires a directory")
		}
		return func(context.Context) (Backend, error) {
			return OpenBadger(BadgerOptions{Dir: cfg.BadgerDir, Logger: logger})
		}, nil
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return func(context.Context) (Backend, error) {
			return OpenSQLite(cfg.SQLitePath)
		}, nil
	case BackendMemory:
		// A redial must see the same data.
		mem := NewMemory()
		return func(context.Context) (Backend, error) { return mem, nil }, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: mongo, badger, sqlite, memory)", cfg.Backend)
	}
}
