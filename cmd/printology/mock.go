package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/printology/storefront/pkg/assistant"
	"github.com/printology/storefront/pkg/mockbackend"
)

func newMockCmd() *cobra.Command {
	var (
		port          int
		failModels    []string
		emptyModels   []string
		failTemplates []string
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run a mock generative AI and EmailJS backend",
		Long: `Run deterministic stand-ins for the generative language API and the
EmailJS relay. Point assistant.base_url at http://localhost:<port> and
contact.emailjs.endpoint at http://localhost:<port>` + mockbackend.EmailJSPath + `.`,
		Example: "  printology mock --fail-model gemini-2.0-flash-exp=503 --fail-template template_customer=400",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fm, err := parseStatusMap(failModels)
			if err != nil {
				return fmt.Errorf("--fail-model: %w", err)
			}
			ft, err := parseStatusMap(failTemplates)
			if err != nil {
				return fmt.Errorf("--fail-template: %w", err)
			}
			empty := make(map[string]bool, len(emptyModels))
			for _, m := range emptyModels {
				empty[m] = true
			}

			logger := slog.Default()
			backend := mockbackend.New(mockbackend.Config{
				Models:        assistant.DefaultModels,
				FailModels:    fm,
				EmptyModels:   empty,
				FailTemplates: ft,
				Logger:        logger,
			})
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           backend.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("mock backend starting", "port", port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.Info("mock backend shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 9090, "listen port")
	cmd.Flags().StringSliceVar(&failModels, "fail-model", nil, "model=status pairs answered with an error")
	cmd.Flags().StringSliceVar(&emptyModels, "empty-model", nil, "models that answer without text")
	cmd.Flags().StringSliceVar(&failTemplates, "fail-template", nil, "template=status pairs the relay rejects")
	return cmd
}

// parseStatusMap parses name=status pairs.
func parseStatusMap(pairs []string) (map[string]int, error) {
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		name, code, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not name=status", p)
		}
		status, err := strconv.Atoi(code)
		if err != nil || status < 400 || status > 599 {
			return nil, fmt.Errorf("%q: status must be an HTTP error code", p)
		}
		out[name] = status
	}
	return out, nil
}
