package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdappliance "github.com/projecteru2/appliance/cmd/appliance"
	cmdcore "github.com/projecteru2/appliance/cmd/core"
	cmdimages "github.com/projecteru2/appliance/cmd/images"
	cmdothers "github.com/projecteru2/appliance/cmd/others"
	"github.com/projecteru2/appliance/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "appliance",
		Short:         "Resolve appliance template versions against local disk images",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("images-dir", "", "images directory (registry root)")
	cmd.PersistentFlags().Int("pool-size", 0, "concurrent version resolutions (default: NumCPU)")
	cmd.PersistentFlags().String("log-level", "", "log level")

	_ = viper.BindPFlag("images_dir", cmd.PersistentFlags().Lookup("images-dir"))
	_ = viper.BindPFlag("pool_size", cmd.PersistentFlags().Lookup("pool-size"))
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("APPLIANCE")
	viper.AutomaticEnv()

	base := cmdcore.BaseHandler{ConfProvider: func() *config.Config { return conf }}

	for _, c := range cmdappliance.Commands(cmdappliance.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdimages.Commands(cmdimages.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdothers.Commands(cmdothers.Handler{}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()
	// Defaults rank above unset flag defaults in viper's lookup order.
	viper.SetDefault("images_dir", conf.ImagesDir)
	viper.SetDefault("pool_size", conf.PoolSize)
	viper.SetDefault("log.level", conf.Log.Level)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := conf.Normalize(); err != nil {
		return err
	}

	return log.SetupLog(ctx, &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
