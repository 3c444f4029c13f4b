package appliance

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/appliance/image"
	"github.com/projecteru2/appliance/types"
)

// Resolve binds every image slot of version to a verified local file.
// Nothing is cached between calls: each call builds fresh Images, which
// read existing checksum records rather than rehashing.
func (a *Appliance) Resolve(ctx context.Context, version string) types.Resolution {
	logger := log.WithFunc("appliance.Resolve")
	res := types.Resolution{Version: version}

	idx, ok := a.versions[version]
	if !ok {
		res.Status = types.StatusUnknownVersion
		res.Err = newError(KindUnknownVersion, nil, "unknown version %q for appliance %s", version, a.tpl.Name)
		return res
	}
	v := a.tpl.Versions[idx]
	res.Name = a.tpl.Name + " " + v.Name

	images := make([]types.ResolvedImage, 0, len(v.Images))
	for _, slot := range v.Images {
		resolved, err := a.resolveSlot(ctx, slot)
		if err != nil {
			logger.Infof(ctx, "%s: %v", res.Name, err)
			res.Status = types.StatusUnresolved
			res.Err = err
			return res
		}
		images = append(images, resolved)
	}
	res.Status = types.StatusResolved
	res.Images = images
	return res
}

func (a *Appliance) resolveSlot(ctx context.Context, slot Slot) (types.ResolvedImage, error) {
	img := a.registry.Resolve(slot.Filename)

	size, err := img.Size()
	if err != nil {
		return types.ResolvedImage{}, imageError(slot, err)
	}
	sum, err := img.Checksum(ctx)
	if err != nil {
		return types.ResolvedImage{}, imageError(slot, err)
	}

	want := a.files[slot.Filename]
	if want.Filesize > 0 && want.Filesize != size {
		return types.ResolvedImage{}, newError(KindMismatch, nil,
			"checksum/size mismatch: %s is %d bytes, expected %d", slot.Filename, size, want.Filesize)
	}
	if want.MD5Sum != "" && !strings.EqualFold(want.MD5Sum, sum) {
		return types.ResolvedImage{}, newError(KindMismatch, nil,
			"checksum/size mismatch: %s has md5 %s, expected %s", slot.Filename, sum, want.MD5Sum)
	}

	return types.ResolvedImage{
		Type:     slot.Type,
		Path:     img.Path(),
		Filename: slot.Filename,
		Checksum: sum,
		Size:     size,
	}, nil
}

func imageError(slot Slot, err error) error {
	if errors.Is(err, image.ErrNotFound) {
		return newError(KindMissingImage, err, "missing image: %s", slot.Filename)
	}
	return newError(KindImageIO, err, "read image %s", slot.Filename)
}

// SearchImagesForVersion returns the resolved images of version, or the
// reason it cannot be resolved.
func (a *Appliance) SearchImagesForVersion(ctx context.Context, version string) (*types.Resolution, error) {
	res := a.Resolve(ctx, version)
	if res.Err != nil {
		return nil, res.Err
	}
	return &res, nil
}

// IsVersionInstallable reports whether version resolves. Missing or
// mismatching images yield false; an unknown version, or an image that
// could not be read, is returned as an error.
func (a *Appliance) IsVersionInstallable(ctx context.Context, version string) (bool, error) {
	res := a.Resolve(ctx, version)
	switch {
	case res.Status == types.StatusResolved:
		return true, nil
	case res.Status == types.StatusUnknownVersion:
		return false, res.Err
	case IsKind(res.Err, KindMissingImage), IsKind(res.Err, KindMismatch):
		return false, nil
	default:
		return false, res.Err
	}
}

// ResolveAll resolves every declared version with at most pool concurrent
// resolutions (NumCPU if pool <= 0). Results follow template order.
// Versions sharing an uncached image may hash it more than once; the
// checksum records they write are identical.
func (a *Appliance) ResolveAll(ctx context.Context, pool int) ([]types.Resolution, error) {
	if pool <= 0 {
		pool = runtime.NumCPU()
	}
	results := make([]types.Resolution, len(a.tpl.Versions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool)
	for i, v := range a.tpl.Versions {
		i, v := i, v
		g.Go(func() error {
			results[i] = a.Resolve(gctx, v.Name)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
