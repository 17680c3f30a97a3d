// Package store is the persistence component (spec §4.4, C4): sessions,
// consumed nonces, and issued compacts, all uniqueness-constrained. It is
// backed by modernc.org/sqlite, a pure-Go database/sql driver — the
// teacher (orbas1-Synnergy) has no SQL dependency of its own, so this
// package is grounded on sibling pack repos (AKJUS-bsc-erigon,
// DanDo385-go-edu) that depend on the same driver. See DESIGN.md.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a *sql.DB with the query surface the rest of the allocator
// needs. A single instance is opened once at boot and shared across
// requests (spec §5: "database connection pool ... initialized once").
type Store struct {
	db *sql.DB
}

// Open opens (and, if necessary, creates) the SQLite database at dsn and
// applies the embedded schema. dsn follows modernc.org/sqlite's DSN
// conventions, e.g. "file:allocator.db?_pragma=busy_timeout(5000)" or
// ":memory:" for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // SQLite serializes writers regardless; avoid lock contention noise

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	log.Debug("store: schema applied")
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
