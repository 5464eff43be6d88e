package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/printology/storefront/pkg/auth"
	"github.com/printology/storefront/pkg/auth/jwt"
	"github.com/printology/storefront/pkg/config"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		opts   jwt.IssueOptions
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 operator token for auth.type=jwt",
		Long: `Mint an HS256 token accepted by a server configured with the same
auth.jwt.secret. The secret is read from --secret, then from
PRINTOLOGY_JWT_SECRET, then from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv(config.EnvPrefix + "JWT_SECRET")
			}
			if secret == "" {
				cfg, _, err := root.loadConfig()
				if err != nil {
					return fmt.Errorf("no --secret given and config unavailable: %w", err)
				}
				secret = cfg.Auth.JWT.Secret
				if opts.Issuer == "" {
					opts.Issuer = cfg.Auth.JWT.Issuer
				}
				if opts.Audience == "" {
					opts.Audience = cfg.Auth.JWT.Audience
				}
			}
			if secret == "" {
				return errors.New("no JWT secret configured")
			}

			tok, err := jwt.Issue(secret, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "token subject (required)")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", []string{auth.ScopeAdmin}, "granted scopes")
	cmd.Flags().StringVar(&opts.Tier, "tier", "", "rate limit tier")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&opts.Issuer, "issuer", "", "iss claim")
	cmd.Flags().StringVar(&opts.Audience, "audience", "", "aud claim")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("subject")
	return cmd
}
