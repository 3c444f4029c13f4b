package flock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/projecteru2/appliance/lock"
)

const retryDelay = 100 * time.Millisecond

var _ lock.Locker = (*Lock)(nil)

// Lock is a cross-process lock on a file via flock(2). Every acquisition
// opens a fresh fd, so two Lock values on the same path exclude each other
// even inside one process.
type Lock struct {
	path string

	mu sync.Mutex
	fl *flock.Flock // non-nil while held
}

// New creates a Lock for the given path. The file is created on first use.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	ok, err := l.acquire(func(fl *flock.Flock) (bool, error) {
		return fl.TryLockContext(ctx, retryDelay)
	})
	if err != nil {
		return fmt.Errorf("acquire flock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("acquire flock %s: %w", l.path, ctx.Err())
	}
	return nil
}

// TryLock attempts a non-blocking acquisition.
// Returns (false, nil) if the lock is held elsewhere.
func (l *Lock) TryLock(_ context.Context) (bool, error) {
	ok, err := l.acquire(func(fl *flock.Flock) (bool, error) {
		return fl.TryLock()
	})
	if err != nil {
		return false, fmt.Errorf("try flock %s: %w", l.path, err)
	}
	return ok, nil
}

// Unlock releases the lock. Unlocking an unheld Lock is a no-op.
func (l *Lock) Unlock(_ context.Context) error {
	l.mu.Lock()
	fl := l.fl
	l.fl = nil
	l.mu.Unlock()
	if fl == nil {
		return nil
	}
	if err := fl.Unlock(); err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) acquire(try func(*flock.Flock) (bool, error)) (bool, error) {
	l.mu.Lock()
	held := l.fl != nil
	l.mu.Unlock()
	if held {
		return false, nil
	}

	fl := flock.New(l.path)
	ok, err := try(fl)
	if err != nil || !ok {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fl != nil {
		_ = fl.Unlock()
		return false, nil
	}
	l.fl = fl
	return true, nil
}
