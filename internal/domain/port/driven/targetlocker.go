package driven

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by TargetLocker.Acquire when another holder owns an
// unexpired lease on the key.
var ErrLockHeld = errors.New("target lock held by another run")

// TargetLocker defines the driven port for an advisory lock keyed by
// (target, tag). It serializes the read-decide-write sequence of concurrent
// runs so they do not both create the same tagged comment.
type TargetLocker interface {
	// Acquire takes a lease on key for holder that expires after ttl.
	// Re-acquiring a key already held by the same holder extends the lease.
	// Returns ErrLockHeld if another holder owns an unexpired lease.
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) error
	// Release drops the lease if holder still owns it. Releasing a key that is
	// not held is a no-op.
	Release(ctx context.Context, key, holder string) error
}
