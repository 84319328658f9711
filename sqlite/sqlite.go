// Package sqlite stores the per-page document slot in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

// migrations run in order. PRAGMA user_version records how many have run.
var migrations = []string{
	`CREATE TABLE page_content (
		page_id      TEXT PRIMARY KEY,
		revision     TEXT NOT NULL,
		content      TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		saved_at     TEXT NOT NULL
	)`,
	`CREATE INDEX page_content_saved_at ON page_content (saved_at)`,
}

// DB is a SQLite database holding document slots.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for the file at path. Use ":memory:" for a
// throwaway database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects and brings the schema up to date.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; a single connection also keeps :memory: shared.
	conn.SetMaxOpenConns(1)

	if err := db.configure(conn); err != nil {
		conn.Close()
		return err
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	db.db = conn
	return nil
}

func (db *DB) configure(conn *sql.DB) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	// WAL is unavailable for in-memory databases.
	if db.path != memoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	for i := version; i < len(migrations); i++ {
		tx, err := conn.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion reports how many migrations have been applied.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	return version, err
}

// Close closes the database.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}
