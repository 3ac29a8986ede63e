package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/prcomment/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TargetLocker = (*LockRepo)(nil)

// LockRepo is the SQLite implementation of the TargetLocker port interface.
// Leases are stored as unix millisecond timestamps.
type LockRepo struct {
	db  *DB
	now func() time.Time
}

// NewLockRepo creates a new LockRepo backed by the given DB.
func NewLockRepo(db *DB) *LockRepo {
	return &LockRepo{db: db, now: time.Now}
}

// Acquire takes or extends the lease on key for holder. Expired leases held by
// others are taken over.
func (r *LockRepo) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (err error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lock tx for %q: %w", key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.now()

	const clearQuery = `DELETE FROM target_locks WHERE lock_key = ? AND (expires_at <= ? OR holder = ?)`
	if _, err = tx.ExecContext(ctx, clearQuery, key, now.UnixMilli(), holder); err != nil {
		return fmt.Errorf("clear stale lock %q: %w", key, err)
	}

	const insertQuery = `INSERT OR IGNORE INTO target_locks (lock_key, holder, acquired_at, expires_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertQuery, key, holder, now.UnixMilli(), now.Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("insert lock %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for lock %q: %w", key, err)
	}
	if n == 0 {
		owner, expiresAt, qerr := queryHolder(ctx, tx, key, now)
		if qerr != nil {
			return qerr
		}
		return fmt.Errorf("%w: %q held by %s until %s", driven.ErrLockHeld, key, owner, expiresAt.Format(time.RFC3339))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lock %q: %w", key, err)
	}
	return nil
}

// Release deletes the lease on key if holder owns it.
func (r *LockRepo) Release(ctx context.Context, key, holder string) error {
	const query = `DELETE FROM target_locks WHERE lock_key = ? AND holder = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, key, holder); err != nil {
		return fmt.Errorf("release lock %q: %w", key, err)
	}
	return nil
}

// Holder returns the current holder of key and when its lease expires.
// Returns ("", zero time, nil) if the key is not held or the lease expired.
func (r *LockRepo) Holder(ctx context.Context, key string) (string, time.Time, error) {
	return queryHolder(ctx, r.db.Writer, key, r.now())
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryHolder(ctx context.Context, q rowQuerier, key string, now time.Time) (string, time.Time, error) {
	const query = `SELECT holder, expires_at FROM target_locks WHERE lock_key = ? AND expires_at > ?`
	var (
		holder    string
		expiresAt int64
	)
	err := q.QueryRowContext(ctx, query, key, now.UnixMilli()).Scan(&holder, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("query lock %q: %w", key, err)
	}
	return holder, time.UnixMilli(expiresAt), nil
}
