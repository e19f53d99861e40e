package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Backend on a single SQLite table:
//
//	kv(key TEXT PRIMARY KEY, value TEXT, version INTEGER)
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, creating it and its parent
// directory as needed. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers and keeps ":memory:" to one database.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close(context.Context) error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		"SELECT value, version FROM kv WHERE key = ?", key,
	).Scan(&e.Value, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`,
		key, value,
	)
	return err
}

func (s *SQLite) SetIfVersion(ctx context.Context, key, value string, version int64) error {
	var (
		res sql.Result
		err error
	)
	if version == 0 {
		res, err = s.db.ExecContext(ctx,
			"INSERT INTO kv (key, value, version) VALUES (?, ?, 1) ON CONFLICT(key) DO NOTHING",
			key, value,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE kv SET value = ?, version = version + 1 WHERE key = ? AND version = ?",
			value, key, version,
		)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLite) Incr(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var cur string
	err = tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	n, err := parseCounter(cur)
	if err != nil {
		return 0, err
	}
	n++
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`,
		key, strconv.FormatInt(n, 10),
	); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key",
		prefix, prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
