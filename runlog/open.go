package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type openConfig struct {
	busyTimeout int
	mkdirAll    bool
}

// OpenOption customises Open behaviour.
type OpenOption func(*openConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) OpenOption {
	return func(c *openConfig) { c.busyTimeout = ms }
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() OpenOption {
	return func(c *openConfig) { c.mkdirAll = true }
}

// Open opens the run ledger at path with production-safe pragmas (foreign
// keys on, WAL journal, busy timeout, synchronous NORMAL) and applies the
// schema. The caller must blank-import the driver:
//
//	import _ "modernc.org/sqlite"
func Open(path string, opts ...OpenOption) (*sql.DB, error) {
	cfg := openConfig{busyTimeout: 10_000}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("runlog: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("runlog: %s: %w", p, err)
		}
	}

	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: schema: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory ledger for testing. It sets MaxOpenConns(1)
// so every query hits the same in-memory database (each connection to
// ":memory:" creates a separate one) and registers t.Cleanup to close it.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("runlog.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
