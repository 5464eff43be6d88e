package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/printology/storefront/pkg/assistant"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the assistant key, the AI backend and the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			var errs []error
			report := func(name string, err error) {
				if err != nil {
					fmt.Fprintf(w, "FAIL  %-10s %v\n", name, err)
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					return
				}
				fmt.Fprintf(w, "ok    %s\n", name)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			keyErr := assistant.ValidateCredential(cfg.Assistant.APIKey, cfg.Assistant.KeyPrefix)
			report("api key", keyErr)

			acq, prov, err := newAcquirer(cfg.Assistant, logger)
			if err != nil {
				return err
			}
			defer prov.Close()
			if keyErr == nil {
				report("assistant", acq.Ping(ctx))
			}

			store, err := newStore(ctx, cfg.Storage, logger)
			switch {
			case err != nil:
				report("storage", err)
			case store != nil:
				report("storage", store.HealthCheck(ctx))
				store.Close()
			}

			_, err = loadCatalog(cfg.Catalog)
			report("catalog", err)

			return errors.Join(errs...)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall deadline for the checks")
	return cmd
}
