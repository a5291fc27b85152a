// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary as a single file.
// No separate database server to run. It is the default store: a fresh
// checkout works with STORE_URL unset, and tests use ":memory:".
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite C code.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/prince-mali2/Filmpire-backend/internal/model"
	"github.com/prince-mali2/Filmpire-backend/internal/repository"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/filmpire.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name registered by modernc.org/sqlite's init().
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// Every new connection to ":memory:" gets its own empty database, so the
	// pool must stay on one connection. For files, a single connection also
	// serializes writes inside the process: SQLite allows one writer at a
	// time, and a second pooled writer can fail with SQLITE_BUSY (even with
	// busy_timeout, when its read snapshot goes stale). busy_timeout still
	// covers other processes, such as a concurrent "migrate".
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.Migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn attaches the connection pragmas to a file path. modernc applies each
// _pragma on every connection it opens, unlike a one-off PRAGMA statement,
// which reaches only whichever pooled connection runs it.
//
// WAL lets readers in other processes proceed while a write is in progress;
// busy_timeout makes a locked write wait instead of failing immediately.
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by /health.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Migrate creates one table per list kind.
//
// UNIQUE(user_id, movie_id) is what keeps a movie from being listed twice
// for the same user. Concurrent inserts race on the constraint and exactly
// one wins. CREATE ... IF NOT EXISTS makes this safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	for _, kind := range model.Kinds {
		table := tableName(kind)
		_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				movie_id     INTEGER NOT NULL,
				title        TEXT NOT NULL DEFAULT '',
				poster_path  TEXT NOT NULL DEFAULT '',
				vote_average REAL NOT NULL DEFAULT 0,
				added_at     TEXT NOT NULL DEFAULT '',
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, movie_id)
			);
			CREATE INDEX IF NOT EXISTS idx_%[1]s_user_id ON %[1]s(user_id);
		`, table))
		if err != nil {
			return fmt.Errorf("creating %s table: %w", table, err)
		}
	}
	return nil
}

// tableName maps a kind to its table. Callers validate the kind first, so
// the result is always one of the two fixed names and safe to interpolate.
func tableName(kind model.ListKind) string {
	if kind == model.Watchlist {
		return "watchlist"
	}
	return "favorites"
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	// Older driver builds report only the primary result code.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
