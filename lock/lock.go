package lock

import (
	"context"
	"fmt"
)

// Locker provides mutual exclusion with context support.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	TryLock(ctx context.Context) (bool, error)
}

// TryWith runs fn only if l can be acquired without blocking.
// It reports whether fn ran.
func TryWith(ctx context.Context, l Locker, fn func() error) (bool, error) {
	ok, err := l.TryLock(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	fnErr := fn()
	if err := l.Unlock(ctx); err != nil && fnErr == nil {
		return true, fmt.Errorf("unlock: %w", err)
	}
	return true, fnErr
}
