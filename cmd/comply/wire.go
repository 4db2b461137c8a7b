package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/comply/internal/auth"
	"github.com/jackzampolin/comply/internal/compliance"
	"github.com/jackzampolin/comply/internal/config"
	"github.com/jackzampolin/comply/internal/crawler"
	"github.com/jackzampolin/comply/internal/credentials"
	"github.com/jackzampolin/comply/internal/home"
	"github.com/jackzampolin/comply/internal/prompts"
	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/providers"
	"github.com/jackzampolin/comply/internal/schema"
)

// app holds the services shared by the commands that run checks.
type app struct {
	home     *home.Dir
	config   *config.Manager
	logger   *slog.Logger
	creds    *credentials.Store
	prompts  *prompts.Resolver
	schema   *schema.ResponseSchema
	registry *providers.Registry
	crawler  *crawler.Crawler
}

// loadApp reads configuration and builds the check pipeline.
// Providers that fail to build are logged and left out.
func loadApp(logger *slog.Logger) (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	mgr.SetLogger(logger)
	if used := mgr.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	cfg := mgr.Get()

	credCfg, secretsDir := cfg.ToCredentialsConfig(logger)
	if secretsDir == "" {
		secretsDir = h.SecretsPath()
	}
	creds := credentials.NewStore(credCfg, secretsDir)

	resolver := prompts.NewResolver(logger)
	verdict.RegisterPrompts(resolver)
	if err := applyPromptOverrides(resolver, cfg.Prompts); err != nil {
		return nil, err
	}

	s, err := loadSchema(cfg.Prompts.PropertiesFile)
	if err != nil {
		return nil, err
	}

	registry := providers.NewRegistry(providers.Dependencies{
		Credentials:  creds,
		SystemPrompt: systemPrompt(resolver, logger),
	})
	registry.SetLogger(logger)
	if err := registry.Reload(cfg.ToProviderRegistryConfig()); err != nil {
		logger.Warn("some providers are unavailable", "error", err)
	}

	return &app{
		home:     h,
		config:   mgr,
		logger:   logger,
		creds:    creds,
		prompts:  resolver,
		schema:   s,
		registry: registry,
		crawler:  crawler.New(cfg.ToCrawlerConfig(logger)),
	}, nil
}

// checker builds a Checker over clients, defaulting to the registry.
func (a *app) checker(clients compliance.ClientSource) (*compliance.Checker, error) {
	if clients == nil {
		clients = a.registry
	}
	return compliance.New(compliance.Config{
		Extractor: a.crawler,
		Clients:   clients,
		Schema:    a.schema,
		Prompts:   a.prompts,
		Logger:    a.logger,
	})
}

// watch applies config file edits to credentials, prompts and providers.
// The schema and crawler settings need a restart.
func (a *app) watch() {
	a.config.OnChange(func(c *config.Config) {
		a.creds.Invalidate()
		if err := applyPromptOverrides(a.prompts, c.Prompts); err != nil {
			a.logger.Warn("prompt overrides not applied", "error", err)
		}
		if err := a.registry.Reload(c.ToProviderRegistryConfig()); err != nil {
			a.logger.Warn("provider reload incomplete", "error", err)
		}
		a.logger.Info("configuration reloaded", "default_provider", a.registry.DefaultName())
	})
	a.config.WatchConfig()
}

// openAuth opens the user store and builds the token issuer.
func (a *app) openAuth(ctx context.Context) (*auth.UserStore, *auth.Issuer, error) {
	cfg := a.config.Get()
	users, err := a.openUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	issuer, err := auth.NewIssuer(config.ResolveEnvVars(cfg.Auth.SecretKey), cfg.Auth.Algorithm, cfg.TokenExpiry())
	if err != nil {
		users.Close()
		return nil, nil, err
	}
	return users, issuer, nil
}

func (a *app) openUsers(ctx context.Context) (*auth.UserStore, error) {
	path := config.ResolveEnvVars(a.config.Get().Auth.UsersDB)
	if path == "" {
		path = a.home.UsersDBPath()
	}
	return auth.OpenUserStore(ctx, auth.StoreConfig{Path: path, Logger: a.logger})
}

func applyPromptOverrides(r *prompts.Resolver, cfg config.PromptsCfg) error {
	if err := r.SetOverride(verdict.SystemKey, config.ResolveEnvVars(cfg.SystemFile)); err != nil {
		return err
	}
	return r.SetOverride(verdict.UserKey, config.ResolveEnvVars(cfg.UserFile))
}

func loadSchema(path string) (*schema.ResponseSchema, error) {
	path = config.ResolveEnvVars(path)
	if path == "" {
		return schema.Default()
	}
	s, err := schema.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load result schema: %w", err)
	}
	return s, nil
}

// systemPrompt resolves the system instruction on each registry build so an
// override file edit is picked up by the next reload.
func systemPrompt(r *prompts.Resolver, logger *slog.Logger) func() string {
	return func() string {
		resolved, err := r.Resolve(verdict.SystemKey)
		if err != nil {
			logger.Warn("system prompt override unreadable, using embedded", "error", err)
			return verdict.SystemPrompt()
		}
		return resolved.Text
	}
}
