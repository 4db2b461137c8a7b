// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/comply/internal/auth"
	"github.com/jackzampolin/comply/internal/compliance"
	"github.com/jackzampolin/comply/internal/home"
	"github.com/jackzampolin/comply/internal/prompts"
	"github.com/jackzampolin/comply/internal/providers"
	"github.com/jackzampolin/comply/internal/schema"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Checker      *compliance.Checker
	Registry     *providers.Registry
	Users        *auth.UserStore
	Issuer       *auth.Issuer
	Prompts      *prompts.Resolver
	Schema       *schema.ResponseSchema
	Logger       *slog.Logger
	Home         *home.Dir
	CheckTimeout time.Duration
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// CheckerFrom extracts the compliance checker from context.
func CheckerFrom(ctx context.Context) *compliance.Checker {
	if s := ServicesFrom(ctx); s != nil {
		return s.Checker
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// UsersFrom extracts the user store from context.
func UsersFrom(ctx context.Context) *auth.UserStore {
	if s := ServicesFrom(ctx); s != nil {
		return s.Users
	}
	return nil
}

// IssuerFrom extracts the token issuer from context.
func IssuerFrom(ctx context.Context) *auth.Issuer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Issuer
	}
	return nil
}

// PromptsFrom extracts the prompt resolver from context.
func PromptsFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prompts
	}
	return nil
}

// SchemaFrom extracts the result schema from context.
func SchemaFrom(ctx context.Context) *schema.ResponseSchema {
	if s := ServicesFrom(ctx); s != nil {
		return s.Schema
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// CheckTimeoutFrom returns the deadline applied to one HTTP check, or 0.
func CheckTimeoutFrom(ctx context.Context) time.Duration {
	if s := ServicesFrom(ctx); s != nil {
		return s.CheckTimeout
	}
	return 0
}
