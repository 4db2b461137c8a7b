// Package compliance runs the end-to-end check for one URL: fetch the page,
// format it into a prompt, ask the configured model for a structured verdict.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/comply/internal/crawler"
	"github.com/jackzampolin/comply/internal/prompts"
	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/providers"
	"github.com/jackzampolin/comply/internal/schema"
)

// Extractor fetches a page and returns its text.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*crawler.Page, error)
}

// ClientSource yields the client used for a check. *providers.Registry
// satisfies it, so hot-reloaded config applies to the next check.
type ClientSource interface {
	Default() (providers.Client, error)
}

// Fixed wraps a single client as a ClientSource.
func Fixed(c providers.Client) ClientSource { return fixed{c} }

type fixed struct{ c providers.Client }

func (f fixed) Default() (providers.Client, error) { return f.c, nil }

// Config configures a Checker.
type Config struct {
	Extractor Extractor
	Clients   ClientSource
	Schema    *schema.ResponseSchema

	// Prompts resolves the user-turn template, honouring file overrides.
	// Nil uses the embedded template.
	Prompts *prompts.Resolver

	Logger *slog.Logger
}

// Checker is safe for concurrent use; it holds no per-check state.
type Checker struct {
	extractor Extractor
	clients   ClientSource
	schema    *schema.ResponseSchema
	prompts   *prompts.Resolver
	logger    *slog.Logger
}

// New creates a Checker.
func New(cfg Config) (*Checker, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("compliance: extractor is required")
	}
	if cfg.Clients == nil {
		return nil, errors.New("compliance: client source is required")
	}
	if cfg.Schema == nil {
		s, err := schema.Default()
		if err != nil {
			return nil, err
		}
		cfg.Schema = s
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Checker{
		extractor: cfg.Extractor,
		clients:   cfg.Clients,
		schema:    cfg.Schema,
		prompts:   cfg.Prompts,
		logger:    cfg.Logger,
	}, nil
}

// Check fetches rawURL and returns the model's verdict. Nothing is retried:
// the first fetch or vendor failure is returned as-is.
func (c *Checker) Check(ctx context.Context, rawURL string) (*providers.Result, error) {
	var result *providers.Result
	err := Timed(c.logger, "check_compliance", func() error {
		var err error
		result, err = c.check(ctx, rawURL)
		return err
	}, "url", rawURL)
	return result, err
}

func (c *Checker) check(ctx context.Context, rawURL string) (*providers.Result, error) {
	client, err := c.clients.Default()
	if err != nil {
		return nil, err
	}

	page, err := c.extractor.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	userText, err := c.UserText(page)
	if err != nil {
		return nil, err
	}

	cons, err := client.BuildConstraints(c.schema)
	if err != nil {
		return nil, err
	}
	reply, err := client.Send(ctx, client.BuildPrompt(userText), cons)
	if err != nil {
		return nil, err
	}

	result, err := client.Parse(reply, userText)
	if err != nil {
		return nil, err
	}

	c.logger.Info("compliance verdict",
		"url", rawURL,
		"provider", result.Provider,
		"model", result.Model,
		"request_id", reply.RequestID,
		"is_compliant", result.IsCompliant,
		"confidence_score", result.ConfidenceScore)
	return result, nil
}

// UserText renders the user turn for an extracted page.
func (c *Checker) UserText(page *crawler.Page) (string, error) {
	tmpl, err := c.userTemplate()
	if err != nil {
		return "", err
	}
	return verdict.RenderUser(tmpl, prompts.Format(page.Body, page.Title))
}

func (c *Checker) userTemplate() (string, error) {
	if c.prompts == nil {
		return verdict.UserTemplate(), nil
	}
	resolved, err := c.prompts.Resolve(verdict.UserKey)
	if err != nil {
		return "", fmt.Errorf("resolve user prompt: %w", err)
	}
	return resolved.Text, nil
}
