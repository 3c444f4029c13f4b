package appliance

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/appliance/cmd/core"
)

// Actions defines template inspection and version resolution commands.
type Actions interface {
	Info(cmd *cobra.Command, args []string) error
	Versions(cmd *cobra.Command, args []string) error
	Resolve(cmd *cobra.Command, args []string) error
}

// Commands builds the appliance command set.
func Commands(h Actions) []*cobra.Command {
	return []*cobra.Command{
		cmdcore.AddOutputFlag(&cobra.Command{
			Use:   "info TEMPLATE",
			Short: "Validate a template and show its metadata",
			Args:  cobra.ExactArgs(1),
			RunE:  h.Info,
		}),
		cmdcore.AddOutputFlag(&cobra.Command{
			Use:     "versions TEMPLATE",
			Aliases: []string{"ls"},
			Short:   "List template versions and whether local images satisfy them",
			Args:    cobra.ExactArgs(1),
			RunE:    h.Versions,
		}),
		cmdcore.AddOutputFlag(&cobra.Command{
			Use:   "resolve TEMPLATE VERSION",
			Short: "Show the local image files backing a version",
			Args:  cobra.ExactArgs(2), //nolint:mnd
			RunE:  h.Resolve,
		}),
	}
}
