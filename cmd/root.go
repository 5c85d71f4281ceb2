package main

import (
	"visiverse/internal/config"

	"github.com/spf13/cobra"
)

// newRootCmd creates the visiverse command. Without a subcommand it serves.
func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "visiverse",
		Short:        "Self-hosted media library server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default configs/config.yml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(&configFile))
	cmd.AddCommand(newUserCmd(&configFile))
	cmd.AddCommand(newScanCmd(&configFile))

	return cmd
}

// loadConfig reads the config file named by --config together with the flags of cmd.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	return config.Load(path, cmd.Flags())
}
