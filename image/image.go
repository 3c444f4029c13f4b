// Package image wraps a single disk-image file with lazily computed size
// and MD5 checksum. Checksums are persisted in a sidecar record
// (<path>.md5sum) and trusted on later reads without comparing mtimes.
package image

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 is the checksum format of appliance templates
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/appliance/progress"
	checksumProgress "github.com/projecteru2/appliance/progress/checksum"
)

// report every 64 MiB
const progressInterval = 64 << 20

// Image is one file on disk. Constructing it performs no I/O.
type Image struct {
	path    string
	tracker progress.Tracker

	mu       sync.Mutex
	size     int64
	sized    bool
	checksum string
}

// Option configures an Image.
type Option func(*Image)

// WithTracker reports checksum progress to t.
func WithTracker(t progress.Tracker) Option {
	return func(i *Image) {
		if t != nil {
			i.tracker = t
		}
	}
}

// New returns an Image for path.
func New(path string, opts ...Option) *Image {
	img := &Image{path: path, tracker: progress.Nop}
	for _, opt := range opts {
		opt(img)
	}
	return img
}

// Path returns the full path of the image file.
func (i *Image) Path() string { return i.path }

// Filename returns the base name of the image file.
func (i *Image) Filename() string { return filepath.Base(i.path) }

// Size returns the file length in bytes.
func (i *Image) Size() (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sized {
		return i.size, nil
	}
	info, err := os.Stat(i.path)
	if err != nil {
		return 0, notFound(err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, i.path)
	}
	i.size, i.sized = info.Size(), true
	return i.size, nil
}

// Checksum returns the hex MD5 of the file. A sidecar record, when present,
// is returned as is; otherwise the file is hashed and the record written.
// Failing to write the record is logged, not returned.
func (i *Image) Checksum(ctx context.Context) (string, error) {
	logger := log.WithFunc("image.Checksum")
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.checksum != "" {
		return i.checksum, nil
	}

	sum, err := readSidecar(i.path)
	switch {
	case err == nil:
		i.tracker.OnEvent(checksumProgress.Event{Phase: checksumProgress.PhaseCached, Path: i.path})
		i.checksum = sum
		return sum, nil
	case !os.IsNotExist(err):
		logger.Warnf(ctx, "unreadable checksum record for %s, rehashing: %v", i.path, err)
	}

	if sum, err = i.hash(ctx); err != nil {
		return "", err
	}
	if err := writeSidecar(i.path, sum); err != nil {
		logger.Warnf(ctx, "cache checksum of %s: %v", i.path, err)
	}
	logger.Infof(ctx, "computed md5 %s for %s", sum, i.path)
	i.checksum = sum
	return sum, nil
}

// Invalidate drops the memoized size and checksum. The sidecar record is
// left alone; remove it to force a rehash.
func (i *Image) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.size, i.sized, i.checksum = 0, false, ""
}

func (i *Image) hash(ctx context.Context) (string, error) {
	f, err := os.Open(i.path)
	if err != nil {
		return "", notFound(err)
	}
	defer f.Close() //nolint:errcheck

	total := int64(-1)
	if info, statErr := f.Stat(); statErr == nil {
		total = info.Size()
	}
	i.tracker.OnEvent(checksumProgress.Event{Phase: checksumProgress.PhaseHash, Path: i.path, BytesTotal: total})

	h := md5.New() //nolint:gosec
	pw := &progressWriter{w: h, path: i.path, total: total, tracker: i.tracker}
	if _, err := io.Copy(pw, &ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("hash %s: %w", i.path, err)
	}

	i.tracker.OnEvent(checksumProgress.Event{Phase: checksumProgress.PhaseDone, Path: i.path, BytesTotal: total, BytesDone: pw.written})
	return hex.EncodeToString(h.Sum(nil)), nil
}

// notFound tags a missing file with ErrNotFound; other failures pass through.
func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// ctxReader stops a long read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// progressWriter wraps the hash and periodically emits progress events.
type progressWriter struct {
	w          io.Writer
	path       string
	written    int64
	total      int64
	tracker    progress.Tracker
	lastReport int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written += int64(n)
	if pw.written-pw.lastReport >= progressInterval {
		pw.lastReport = pw.written
		pw.tracker.OnEvent(checksumProgress.Event{
			Phase:      checksumProgress.PhaseHash,
			Path:       pw.path,
			BytesTotal: pw.total,
			BytesDone:  pw.written,
		})
	}
	return n, err
}
