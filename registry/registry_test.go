package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/appliance/image"
	"github.com/projecteru2/appliance/lock/flock"
)

func TestResolve(t *testing.T) {
	root := t.TempDir()
	reg := New(root + "/")
	require.Equal(t, root, reg.Root())

	tests := []struct {
		rel  string
		want string
	}{
		{"linux-microcore-3.4.1.img", filepath.Join(root, "linux-microcore-3.4.1.img")},
		{"QEMU/vios.qcow2", filepath.Join(root, "QEMU", "vios.qcow2")},
		{"../escape.img", filepath.Join(root, "escape.img")},
		{"/abs.img", filepath.Join(root, "abs.img")},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			img := reg.Resolve(tt.rel)
			require.Equal(t, tt.want, img.Path())
		})
	}
}

func TestResolveMissingDefersToImage(t *testing.T) {
	reg := New(filepath.Join(t.TempDir(), "no-such-root"))
	img := reg.Resolve("missing.img")
	require.Equal(t, "missing.img", img.Filename())

	_, err := img.Size()
	require.ErrorIs(t, err, image.ErrNotFound)
}

func TestResolveChecksum(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.img"), []byte("hello"), 0o600))

	sum, err := New(root).Resolve("a.img").Checksum(context.Background())
	require.NoError(t, err)
	require.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)
	require.FileExists(t, filepath.Join(root, "a.img.md5sum"))
}

func TestGC(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "QEMU"), 0o750))
	files := map[string]string{
		"kept.img":                 "x",
		"kept.img.md5sum":          "abc",
		"orphan.img.md5sum":        "abc",
		"QEMU/orphan.qcow2.md5sum": "abc",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o600))
	}

	removed, err := New(root).GC(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(root, "orphan.img.md5sum"),
		filepath.Join(root, "QEMU", "orphan.qcow2.md5sum"),
	}, removed)
	require.FileExists(t, filepath.Join(root, "kept.img.md5sum"))
	require.NoFileExists(t, filepath.Join(root, "orphan.img.md5sum"))

	removed, err = New(root).GC(ctx)
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestGCSkipsWhenLocked(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "orphan.img.md5sum"), []byte("abc"), 0o600))

	holder := flock.New(filepath.Join(root, gcLockName))
	require.NoError(t, holder.Lock(ctx))
	defer holder.Unlock(ctx) //nolint:errcheck

	removed, err := New(root).GC(ctx)
	require.NoError(t, err)
	require.Empty(t, removed)
	require.FileExists(t, filepath.Join(root, "orphan.img.md5sum"))
}

func TestGCMissingRoot(t *testing.T) {
	removed, err := New(filepath.Join(t.TempDir(), "nope")).GC(context.Background())
	require.NoError(t, err)
	require.Nil(t, removed)
}
