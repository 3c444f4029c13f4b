package flock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/appliance/lock"
)

func TestTryLockExcludesOtherHolders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gc.lock")

	a, b := New(path), New(path)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	require.False(t, ok, "second holder must not acquire")

	ok, err = a.TryLock(ctx)
	require.NoError(t, err)
	require.False(t, ok, "lock is not reentrant")

	require.NoError(t, a.Unlock(ctx))

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, b.Unlock(ctx))
	require.NoError(t, b.Unlock(ctx))
}

func TestLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.lock")
	holder := New(path)
	require.NoError(t, holder.Lock(context.Background()))
	defer holder.Unlock(context.Background()) //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	require.Error(t, New(path).Lock(ctx))
}

func TestTryWith(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gc.lock")

	ran, err := lock.TryWith(ctx, New(path), func() error { return nil })
	require.NoError(t, err)
	require.True(t, ran)

	holder := New(path)
	require.NoError(t, holder.Lock(ctx))
	ran, err = lock.TryWith(ctx, New(path), func() error {
		t.Fatal("must not run while held")
		return nil
	})
	require.NoError(t, err)
	require.False(t, ran)
	require.NoError(t, holder.Unlock(ctx))
}
