package appliance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/projecteru2/appliance/registry"
	"github.com/projecteru2/appliance/types"
)

// microcore loads the microcore template over a fresh images dir holding
// linux-microcore-3.4.1.img with the given content.
func microcore(t *testing.T, content string) (*Appliance, string) {
	t.Helper()
	root := t.TempDir()
	img := filepath.Join(root, "linux-microcore-3.4.1.img")
	require.NoError(t, os.WriteFile(img, []byte(content), 0o600))
	a, err := Load(context.Background(), registry.New(root), microcorePath)
	require.NoError(t, err)
	return a, img
}

func TestSearchImagesForVersion(t *testing.T) {
	a, img := microcore(t, "hello")

	detected, err := a.SearchImagesForVersion(context.Background(), "3.4.1")
	require.NoError(t, err)
	require.Equal(t, "Micro Core Linux 3.4.1", detected.Name)
	require.Equal(t, "3.4.1", detected.Version)
	require.Len(t, detected.Images, 1)
	require.Equal(t, "hda_disk_image", detected.Images[0].Type)
	require.Equal(t, img, detected.Images[0].Path)
	require.Equal(t, "5d41402abc4b2a76b9719d911017c592", detected.Images[0].Checksum)
	require.Equal(t, int64(5), detected.Images[0].Size)
	require.FileExists(t, img+".md5sum")
}

func TestSearchImagesForVersionUnknownVersion(t *testing.T) {
	a, _ := microcore(t, "hello")

	_, err := a.SearchImagesForVersion(context.Background(), "42")
	require.True(t, IsKind(err, KindUnknownVersion), "got %v", err)
}

func TestSearchImagesForVersionMissingFile(t *testing.T) {
	a, _ := microcore(t, "hello")

	_, err := a.SearchImagesForVersion(context.Background(), "4.0.2")
	require.True(t, IsKind(err, KindMissingImage), "got %v", err)
	require.Contains(t, err.Error(), "missing image: linux-microcore-4.0.2-clean.img")
}

func TestIsVersionInstallable(t *testing.T) {
	ctx := context.Background()
	a, _ := microcore(t, "hello")

	ok, err := a.IsVersionInstallable(ctx, "3.4.1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.IsVersionInstallable(ctx, "4.0.2")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = a.IsVersionInstallable(ctx, "42")
	require.True(t, IsKind(err, KindUnknownVersion))
}

func TestMismatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		record  string
	}{
		{"wrong size", "hello!", ""},
		{"wrong content same size", "hellO", ""},
		{"stale checksum record", "hello", "00000000000000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, img := microcore(t, tt.content)
			if tt.record != "" {
				require.NoError(t, os.WriteFile(img+".md5sum", []byte(tt.record), 0o600))
			}

			res := a.Resolve(ctx, "3.4.1")
			require.Equal(t, types.StatusUnresolved, res.Status)
			require.True(t, IsKind(res.Err, KindMismatch), "got %v", res.Err)
			require.Nil(t, res.Images)

			ok, err := a.IsVersionInstallable(ctx, "3.4.1")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestMD5IsCaseInsensitive(t *testing.T) {
	const doc = `{"registry_version": 4, "name": "x",
		"images": [{"filename": "a.img", "md5sum": "5D41402ABC4B2A76B9719D911017C592"}],
		"versions": [{"name": "1", "images": {"hda_disk_image": "a.img"}}]}`
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.img"), []byte("hello"), 0o600))

	a, err := Parse(registry.New(root), []byte(doc), FormatJSON)
	require.NoError(t, err)
	ok, err := a.IsVersionInstallable(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResolveMultipleSlots(t *testing.T) {
	const doc = `{"registry_version": 4, "name": "Router",
		"images": [{"filename": "disk.qcow2"}, {"filename": "vmlinuz"}, {"filename": "initrd.img"}],
		"versions": [{"name": "1.0", "images": {
			"hda_disk_image": "disk.qcow2",
			"kernel_image": "vmlinuz",
			"initrd": "initrd.img"
		}}]}`
	ctx := context.Background()
	root := t.TempDir()
	reg := registry.New(root)
	a, err := Parse(reg, []byte(doc), FormatJSON)
	require.NoError(t, err)

	for _, name := range []string{"disk.qcow2", "vmlinuz"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0o600))
	}
	res := a.Resolve(ctx, "1.0")
	require.Equal(t, types.StatusUnresolved, res.Status)
	require.True(t, IsKind(res.Err, KindMissingImage))
	require.Contains(t, res.Err.Error(), "initrd.img")

	require.NoError(t, os.WriteFile(filepath.Join(root, "initrd.img"), []byte("initrd"), 0o600))
	res = a.Resolve(ctx, "1.0")
	require.Equal(t, types.StatusResolved, res.Status)
	require.True(t, res.Installable())
	var got []string
	for _, img := range res.Images {
		got = append(got, img.Type)
	}
	require.Equal(t, []string{"hda_disk_image", "kernel_image", "initrd"}, got)
	require.Equal(t, reg.Path("vmlinuz"), res.Images[1].Path)
}

func TestResolveUnknownVersionStatus(t *testing.T) {
	a, _ := microcore(t, "hello")
	res := a.Resolve(context.Background(), "3.4")
	require.Equal(t, types.StatusUnknownVersion, res.Status)
	require.False(t, res.Installable())
	require.Empty(t, res.Name)
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	a, _ := microcore(t, "hello")
	versions := append(a.Versions(), "42", "")

	rapid.Check(t, func(r *rapid.T) {
		version := rapid.SampledFrom(versions).Draw(r, "version")
		first := a.Resolve(ctx, version)
		second := a.Resolve(ctx, version)
		require.Equal(r, first.Status, second.Status)
		require.Equal(r, first.Name, second.Name)
		require.Equal(r, first.Images, second.Images)

		_, searchErr := a.SearchImagesForVersion(ctx, version)
		ok, installErr := a.IsVersionInstallable(ctx, version)
		switch first.Status {
		case types.StatusResolved:
			require.NoError(r, searchErr)
			require.True(r, ok)
		case types.StatusUnresolved:
			require.Error(r, searchErr)
			require.NoError(r, installErr)
			require.False(r, ok)
		case types.StatusUnknownVersion:
			require.Error(r, searchErr)
			require.Error(r, installErr)
		}
	})
}

func TestResolveAll(t *testing.T) {
	a, _ := microcore(t, "hello")

	results, err := a.ResolveAll(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "3.4.1", results[0].Version)
	require.True(t, results[0].Installable())
	require.Equal(t, "4.0.2", results[1].Version)
	require.False(t, results[1].Installable())
	require.True(t, IsKind(results[1].Err, KindMissingImage))
}

func TestResolveAllCanceled(t *testing.T) {
	a, _ := microcore(t, "hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ResolveAll(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}
