package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/assistant"
	"github.com/printology/storefront/pkg/auth"
	"github.com/printology/storefront/pkg/auth/apikey"
	"github.com/printology/storefront/pkg/auth/jwt"
	"github.com/printology/storefront/pkg/auth/noop"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/config"
	"github.com/printology/storefront/pkg/contact"
	"github.com/printology/storefront/pkg/engine"
	"github.com/printology/storefront/pkg/mailer"
	"github.com/printology/storefront/pkg/mailer/emailjs"
	"github.com/printology/storefront/pkg/mcpserver"
	"github.com/printology/storefront/pkg/provider"
	"github.com/printology/storefront/pkg/provider/gemini"
	"github.com/printology/storefront/pkg/storage"
	"github.com/printology/storefront/pkg/storage/memory"
	"github.com/printology/storefront/pkg/storage/postgres"
	"github.com/printology/storefront/pkg/transport"
	transporthttp "github.com/printology/storefront/pkg/transport/http"
)

// app holds the wired components of a running server.
type app struct {
	engine   *engine.Engine
	acquirer *assistant.Acquirer
	server   *transporthttp.Server
	closers  []func() error
}

// Close releases the store and provider.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildApp wires every component from cfg.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	acq, prov, err := newAcquirer(cfg.Assistant, logger)
	if err != nil {
		return nil, err
	}
	a.acquirer = acq
	a.closers = append(a.closers, prov.Close)

	store, err := newStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, store.Close)
	}

	disp, err := newDispatcher(newSender(cfg.Contact, logger), store, cfg.Contact, logger)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	a.engine, err = engine.New(acq, disp, cat, store, engine.Config{
		Greeting:   cfg.Assistant.Greeting,
		Apology:    cfg.Assistant.Apology,
		Validation: api.DefaultValidationConfig(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	authMW, guard, err := newAuthMiddleware(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithReadHeaderTimeout(cfg.Server.ReadHeaderTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
		transporthttp.WithMiddleware(authMW),
	}
	if guard != nil {
		opts = append(opts, transporthttp.WithAdminGuard(guard))
	}
	if cfg.MCP.Enabled {
		opts = append(opts, transporthttp.WithMount(cfg.MCP.Path, mcpserver.New(a.engine, version, logger).Handler()))
		logger.Info("mcp endpoint enabled", "path", cfg.MCP.Path)
	}
	a.server = transporthttp.NewServer(a.engine, opts...)

	ok = true
	return a, nil
}

// newAcquirer builds the Gemini provider and the fallback acquirer.
func newAcquirer(cfg config.AssistantConfig, logger *slog.Logger) (*assistant.Acquirer, provider.Provider, error) {
	gcfg := gemini.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		gcfg.BaseURL = cfg.BaseURL
	}
	if cfg.APIVersion != "" {
		gcfg.APIVersion = cfg.APIVersion
	}
	prov, err := gemini.New(gcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating provider: %w", err)
	}

	var prompt string
	if cfg.PromptFile != "" {
		if prompt, err = assistant.LoadPrompt(cfg.PromptFile); err != nil {
			prov.Close()
			return nil, nil, err
		}
	}

	models := cfg.Models
	if len(models) == 0 {
		models = assistant.DefaultModels
	}

	acq, err := assistant.New(prov, assistant.Config{
		Models:    models,
		APIKey:    cfg.APIKey,
		KeyPrefix: cfg.KeyPrefix,
		Prompt:    prompt,
		Template:  cfg.Template,
		Generation: provider.GenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
		},
		CandidateTimeout: cfg.CandidateTimeout,
		Logger:           logger,
	})
	if err != nil {
		prov.Close()
		return nil, nil, err
	}
	if err := assistant.ValidateCredential(cfg.APIKey, cfg.KeyPrefix); err != nil {
		logger.Warn("assistant credential is not usable, chat will answer not_configured", "error", err)
	}
	return acq, prov, nil
}

// newStore returns nil when persistence is disabled.
func newStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		logger.Info("storage enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		logger.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		logger.Info("storage disabled")
		return nil, nil
	}
}

func newSender(cfg config.ContactConfig, logger *slog.Logger) mailer.Sender {
	if cfg.Driver == "log" {
		logger.Warn("contact messages are logged, not mailed")
		return mailer.LogSender{Logger: logger}
	}
	return emailjs.New(emailjs.Config{
		Endpoint: cfg.EmailJS.Endpoint,
		Timeout:  cfg.SendTimeout,
	})
}

func newDispatcher(sender mailer.Sender, store storage.SubmissionStore, cfg config.ContactConfig, logger *slog.Logger) (*contact.Dispatcher, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("contact time zone: %w", err)
	}
	dcfg := contact.DefaultConfig()
	dcfg.ServiceID = cfg.EmailJS.ServiceID
	dcfg.OperatorTemplateID = cfg.EmailJS.OperatorTemplateID
	dcfg.SenderTemplateID = cfg.EmailJS.SenderTemplateID
	dcfg.PublicKey = cfg.EmailJS.PublicKey
	dcfg.AccessToken = cfg.EmailJS.AccessToken
	dcfg.OperatorEmail = cfg.OperatorEmail
	dcfg.BusinessEmail = cfg.BusinessEmail
	if cfg.BusinessPhone != "" {
		dcfg.BusinessPhone = cfg.BusinessPhone
	}
	if cfg.TeamName != "" {
		dcfg.TeamName = cfg.TeamName
	}
	dcfg.Location = loc
	dcfg.MaskDeliveryFailures = cfg.MaskDeliveryFailures
	dcfg.SendTimeout = cfg.SendTimeout
	dcfg.Logger = logger

	disp, err := contact.New(sender, store, dcfg)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	return disp, nil
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// newAuthMiddleware builds the auth chain and rate limiter. The guard is
// nil when no credentials are configured, which leaves the operator
// endpoints unregistered.
func newAuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) (transport.Middleware, transport.Middleware, error) {
	chain := &auth.AuthChain{DefaultDecision: auth.No}
	if cfg.AllowAnonymous {
		chain.DefaultDecision = auth.Yes
	}

	var guard transport.Middleware
	switch cfg.Type {
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			id := auth.Identity{
				Subject:     k.Subject,
				ServiceTier: k.ServiceTier,
				Scopes:      k.Scopes,
			}
			if k.TenantID != "" {
				id.Metadata = map[string]string{"tenant_id": k.TenantID}
			}
			entries = append(entries, apikey.RawKeyEntry{Key: k.Key, Identity: id})
		}
		authn, err := apikey.New(entries)
		if err != nil {
			return nil, nil, err
		}
		chain.Authenticators = []auth.Authenticator{authn}
		guard = auth.RequireScope(auth.ScopeAdmin)
	case "jwt":
		authn, err := jwt.New(jwt.Config{
			Secret:   cfg.JWT.Secret,
			JWKSURL:  cfg.JWT.JWKSURL,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		})
		if err != nil {
			return nil, nil, err
		}
		chain.Authenticators = []auth.Authenticator{authn}
		guard = auth.RequireScope(auth.ScopeAdmin)
	default:
		chain.Authenticators = []auth.Authenticator{noop.Authenticator{}}
	}

	tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
	for name, rpm := range cfg.RateLimit.Tiers {
		tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
	}
	mw := auth.Middleware(auth.MiddlewareConfig{
		Chain:   chain,
		Limiter: auth.NewInProcessLimiter(tiers, cfg.RateLimit.RequestsPerMinute),
		Logger:  logger,
	})
	logger.Info("auth configured", "type", cfg.Type, "anonymous", cfg.AllowAnonymous, "rpm", cfg.RateLimit.RequestsPerMinute)
	return mw, guard, nil
}
