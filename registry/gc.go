package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/appliance/image"
	"github.com/projecteru2/appliance/lock"
	"github.com/projecteru2/appliance/lock/flock"
	"github.com/projecteru2/appliance/utils"
)

const gcLockName = ".gc.lock"

// GC removes checksum records whose image is gone and returns the removed
// paths. A concurrent GC on the same root makes this run a no-op.
func (r *Registry) GC(ctx context.Context) ([]string, error) {
	logger := log.WithFunc("registry.GC")
	if info, err := os.Stat(r.root); err != nil || !info.IsDir() {
		logger.Infof(ctx, "images dir %s does not exist, nothing to collect", r.root)
		return nil, nil
	}

	var removed []string
	ran, err := lock.TryWith(ctx, flock.New(filepath.Join(r.root, gcLockName)), func() error {
		var errs []error
		for _, record := range utils.WalkSuffix(r.root, image.SidecarSuffix) {
			if err := ctx.Err(); err != nil {
				return err
			}
			source := strings.TrimSuffix(record, image.SidecarSuffix)
			if _, statErr := os.Lstat(source); !os.IsNotExist(statErr) {
				continue
			}
			if err := os.Remove(record); err != nil && !os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("remove %s: %w", record, err))
				continue
			}
			removed = append(removed, record)
			logger.Infof(ctx, "GC removed: %s", record)
		}
		return errors.Join(errs...)
	})
	if !ran && err == nil {
		logger.Infof(ctx, "GC already running on %s, skipping", r.root)
	}
	return removed, err
}
