package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/appliance/appliance"
	"github.com/projecteru2/appliance/config"
	"github.com/projecteru2/appliance/registry"
)

// Output modes accepted by --output.
const (
	OutputAuto  = "auto"
	OutputTable = "table"
	OutputJSON  = "json"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitRegistry returns the registry over the configured images dir.
func InitRegistry(conf *config.Config) *registry.Registry {
	return registry.New(conf.ImagesDir)
}

// LoadAppliance loads the template at path bound to the configured registry.
func LoadAppliance(ctx context.Context, conf *config.Config, path string) (*appliance.Appliance, error) {
	return appliance.Load(ctx, InitRegistry(conf), path)
}

// AddOutputFlag registers --output on cmd.
func AddOutputFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().StringP("output", "o", OutputAuto, "output format: auto, table or json (auto picks json when stdout is not a terminal)")
	return cmd
}

// WantJSON reports whether cmd should print JSON instead of a table.
func WantJSON(cmd *cobra.Command) (bool, error) {
	mode, _ := cmd.Flags().GetString("output")
	switch mode {
	case OutputJSON:
		return true, nil
	case OutputTable:
		return false, nil
	case OutputAuto, "":
		return !term.IsTerminal(int(os.Stdout.Fd())), nil //nolint:gosec // fd fits in int
	default:
		return false, fmt.Errorf("invalid --output %q (want auto, table or json)", mode)
	}
}

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
