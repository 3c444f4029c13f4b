package others

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projecteru2/appliance/version"
)

type Handler struct{}

func (h Handler) Version(_ *cobra.Command, _ []string) error {
	fmt.Print(version.String())
	return nil
}
