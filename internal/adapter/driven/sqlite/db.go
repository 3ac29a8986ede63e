// Package sqlite implements the TargetLocker port on a SQLite database file
// shared by runs on the same machine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a single-connection SQLite handle with WAL mode enabled. One
// connection per process avoids "database is locked" errors from within the
// process; busy_timeout covers contention between processes.
type DB struct {
	Writer *sql.DB
}

// NewDB opens the database at dbPath with WAL mode, a busy timeout and
// synchronous NORMAL.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		dbPath,
	)
	return open(ctx, dsn)
}

func open(ctx context.Context, dsn string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	return &DB{Writer: writer}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if err := db.Writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
