package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/printology/storefront/pkg/engine"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the shop assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			acq, prov, err := newAcquirer(cfg.Assistant, logger)
			if err != nil {
				return err
			}
			defer prov.Close()

			out, err := acq.Acquire(cmd.Context(), strings.Join(args, " "))
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			w := cmd.OutOrStdout()
			if verbose {
				for _, at := range out.Attempts {
					status := "ok"
					if !at.Succeeded() {
						status = string(at.Failure)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "%-24s %-12s %4d %s\n", at.Model, status, at.StatusCode, at.Duration.Round(time.Millisecond))
				}
			}
			if !out.Answered() {
				apology := cfg.Assistant.Apology
				if apology == "" {
					apology = engine.DefaultApology
				}
				fmt.Fprintln(w, apology)
				return out.Err()
			}
			fmt.Fprintln(w, out.Text)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every candidate attempt to stderr")
	return cmd
}

