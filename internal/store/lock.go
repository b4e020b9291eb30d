package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DefaultLockTimeout is how long Lock waits for another process by default
	DefaultLockTimeout = 10 * time.Second

	lockPollInterval = 50 * time.Millisecond
)

// ErrLocked indicates another process holds the stack lock
var ErrLocked = errors.New("stack is locked by another patchstack process")

// Lock is an exclusive advisory lock on one branch's stack. It serialises
// patchstack processes working on the same branch.
type Lock struct {
	flock *flock.Flock
}

// Lock acquires the branch lock, polling until timeout or ctx is done.
// A zero timeout tries exactly once.
func (s *FileStore) Lock(ctx context.Context, branch string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(s.branchDir(branch), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create stack directory: %w", err)
	}
	l := &Lock{flock: flock.New(s.path(branch, lockFileName))}

	if timeout <= 0 {
		locked, err := l.flock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w (branch %s)", ErrLocked, branch)
		}
		return l, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	locked, err := l.flock.TryLockContext(timeoutCtx, lockPollInterval)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (branch %s, waited %s)", ErrLocked, branch, timeout)
	}
	return l, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Unlock releases the lock. It is safe to call more than once.
func (l *Lock) Unlock() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
