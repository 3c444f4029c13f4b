package appliance

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/appliance/cmd/core"
	"github.com/projecteru2/appliance/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

// versionView is the JSON shape of one `versions` row.
type versionView struct {
	Version     string                `json:"version"`
	Name        string                `json:"name"`
	Installable bool                  `json:"installable"`
	Reason      string                `json:"reason,omitempty"`
	Images      []types.ResolvedImage `json:"images,omitempty"`
}

func (h Handler) Info(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	a, err := cmdcore.LoadAppliance(ctx, conf, args[0])
	if err != nil {
		return err
	}
	asJSON, err := cmdcore.WantJSON(cmd)
	if err != nil {
		return err
	}
	if asJSON {
		return cmdcore.PrintJSON(a.Document())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintf(w, "NAME\t%s\n", a.Name())
	_, _ = fmt.Fprintf(w, "REGISTRY VERSION\t%d\n", a.RegistryVersion())
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		switch v.(type) {
		case string, float64, int, bool:
			_, _ = fmt.Fprintf(w, "%s\t%v\n", k, v)
		}
	}
	for _, v := range a.Versions() {
		_, _ = fmt.Fprintf(w, "VERSION\t%s\n", v)
	}
	return w.Flush()
}

func (h Handler) Versions(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	a, err := cmdcore.LoadAppliance(ctx, conf, args[0])
	if err != nil {
		return err
	}
	asJSON, err := cmdcore.WantJSON(cmd)
	if err != nil {
		return err
	}

	results, err := a.ResolveAll(ctx, conf.PoolSize)
	if err != nil {
		return fmt.Errorf("resolve versions: %w", err)
	}
	views := make([]versionView, 0, len(results))
	for _, res := range results {
		view := versionView{
			Version:     res.Version,
			Name:        res.Name,
			Installable: res.Installable(),
			Images:      res.Images,
		}
		if res.Err != nil {
			view.Reason = res.Err.Error()
		}
		views = append(views, view)
	}

	if asJSON {
		return cmdcore.PrintJSON(views)
	}
	if len(views) == 0 {
		log.WithFunc("cmd.versions").Infof(ctx, "%s declares no versions", a.Name())
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintln(w, "VERSION\tINSTALLABLE\tREASON")
	for _, v := range views {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", v.Version, v.Installable, v.Reason)
	}
	return w.Flush()
}

func (h Handler) Resolve(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	a, err := cmdcore.LoadAppliance(ctx, conf, args[0])
	if err != nil {
		return err
	}
	asJSON, err := cmdcore.WantJSON(cmd)
	if err != nil {
		return err
	}

	res, err := a.SearchImagesForVersion(ctx, args[1])
	if err != nil {
		return err
	}
	if asJSON {
		return cmdcore.PrintJSON(res)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintf(w, "# %s\n", res.Name)
	_, _ = fmt.Fprintln(w, "TYPE\tPATH\tSIZE\tMD5")
	for _, img := range res.Images {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", img.Type, img.Path, cmdcore.FormatSize(img.Size), img.Checksum)
	}
	return w.Flush()
}
