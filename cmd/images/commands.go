package images

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/appliance/cmd/core"
)

// Actions defines commands operating on image files and their checksum records.
type Actions interface {
	Checksum(cmd *cobra.Command, args []string) error
	GC(cmd *cobra.Command, args []string) error
}

// Commands builds image command set.
func Commands(h Actions) []*cobra.Command {
	checksum := cmdcore.AddOutputFlag(&cobra.Command{
		Use:   "checksum FILE [FILE...]",
		Short: "Show size and MD5 of image files, recording checksums next to them",
		Long: "Show size and MD5 of image files. Relative paths are taken from the images dir.\n" +
			"An existing .md5sum record is trusted as is; pass --rehash to recompute it.",
		Args: cobra.MinimumNArgs(1),
		RunE: h.Checksum,
	})
	checksum.Flags().Bool("rehash", false, "discard existing checksum records and hash the files again")

	return []*cobra.Command{
		checksum,
		{
			Use:   "gc",
			Short: "Remove checksum records whose image file no longer exists",
			RunE:  h.GC,
		},
	}
}
