package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/printology/storefront/pkg/config"
	"github.com/printology/storefront/pkg/debug"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "printology",
		Short:         "Printology storefront backend",
		Long:          "Printology serves the print shop's assistant chat, contact form and catalog.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $PRINTOLOGY_CONFIG, ./config.yaml, /etc/printology/config.yaml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newCheckCmd(opts),
		newMockCmd(),
		newTokenCmd(opts),
	)
	return cmd
}

// loadConfig reads the layered configuration and installs the default logger.
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, slog.Default(), nil
}
