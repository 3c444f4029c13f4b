package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/appliance/cmd/core"
	"github.com/projecteru2/appliance/image"
	"github.com/projecteru2/appliance/progress"
	checksumProgress "github.com/projecteru2/appliance/progress/checksum"
)

type Handler struct {
	cmdcore.BaseHandler
}

// fileView is the JSON shape of one `checksum` row.
type fileView struct {
	Path     string `json:"path"`
	Size     int64  `json:"filesize"`
	Checksum string `json:"md5sum"`
}

func (h Handler) Checksum(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmdcore.WantJSON(cmd)
	if err != nil {
		return err
	}
	rehash, _ := cmd.Flags().GetBool("rehash")
	reg := cmdcore.InitRegistry(conf)

	views := make([]fileView, 0, len(args))
	for _, arg := range args {
		var img *image.Image
		if filepath.IsAbs(arg) {
			img = image.New(arg, image.WithTracker(h.tracker(ctx)))
		} else {
			img = reg.Resolve(arg, image.WithTracker(h.tracker(ctx)))
		}
		if rehash {
			if err := os.Remove(image.SidecarPath(img.Path())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("discard checksum record of %s: %w", img.Path(), err)
			}
		}
		size, err := img.Size()
		if err != nil {
			return err
		}
		sum, err := img.Checksum(ctx)
		if err != nil {
			return err
		}
		views = append(views, fileView{Path: img.Path(), Size: size, Checksum: sum})
	}

	if asJSON {
		return cmdcore.PrintJSON(views)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintln(w, "PATH\tSIZE\tMD5")
	for _, v := range views {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", v.Path, cmdcore.FormatSize(v.Size), v.Checksum)
	}
	return w.Flush()
}

func (h Handler) GC(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	removed, err := cmdcore.InitRegistry(conf).GC(ctx)
	if err != nil {
		return err
	}
	log.WithFunc("cmd.gc").Infof(ctx, "GC completed, %d checksum records removed", len(removed))
	return nil
}

func (h Handler) tracker(ctx context.Context) progress.Tracker {
	logger := log.WithFunc("cmd.checksum")
	return progress.NewTracker(func(e checksumProgress.Event) {
		switch e.Phase {
		case checksumProgress.PhaseCached:
			logger.Infof(ctx, "using recorded checksum for %s", e.Path)
		case checksumProgress.PhaseHash:
			switch {
			case e.BytesDone == 0 && e.BytesTotal > 0:
				logger.Infof(ctx, "hashing %s (%s)", e.Path, cmdcore.FormatSize(e.BytesTotal))
			case e.BytesDone == 0:
				logger.Infof(ctx, "hashing %s", e.Path)
			case e.BytesTotal > 0:
				pct := float64(e.BytesDone) / float64(e.BytesTotal) * 100 //nolint:mnd
				fmt.Fprintf(os.Stderr, "\r  %s / %s (%.1f%%)", cmdcore.FormatSize(e.BytesDone), cmdcore.FormatSize(e.BytesTotal), pct)
			default:
				fmt.Fprintf(os.Stderr, "\r  %s hashed", cmdcore.FormatSize(e.BytesDone))
			}
		case checksumProgress.PhaseDone:
			if e.BytesDone >= 64<<20 { //nolint:mnd
				fmt.Fprintln(os.Stderr)
			}
			logger.Infof(ctx, "done: %s", e.Path)
		}
	})
}
