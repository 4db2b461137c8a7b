// Package credentials resolves vendor API keys at call time.
//
// Keys are looked up as {PROVIDER}_API_KEY, first in the process environment
// and then as a file in an optional secrets directory. Resolved values are
// cached in memory for a bounded time. The process environment is only read.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/comply/internal/errdefs"
)

// DefaultTTL is how long a resolved key stays cached.
const DefaultTTL = 5 * time.Minute

// Source looks up a secret by name. ok is false when the source does not have it.
type Source interface {
	Lookup(ctx context.Context, name string) (value string, ok bool, err error)
}

// EnvSource reads secrets from the process environment.
type EnvSource struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (s EnvSource) Lookup(_ context.Context, name string) (string, bool, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	v = strings.TrimSpace(v)
	return v, ok && v != "", nil
}

// DirSource reads secrets from files named after the lowercased key,
// e.g. <dir>/openai_api_key. This is the layout of mounted secret volumes.
type DirSource struct {
	Dir string
}

func (s DirSource) Lookup(_ context.Context, name string) (string, bool, error) {
	if s.Dir == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, strings.ToLower(name)))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read secret %s: %w", name, err)
	}
	v := strings.TrimSpace(string(data))
	return v, v != "", nil
}

// Config configures a Store.
type Config struct {
	Sources []Source      // Default: environment, then SecretsDir if set.
	TTL     time.Duration // Zero uses DefaultTTL; negative disables caching.
	Logger  *slog.Logger
	Now     func() time.Time // Optional (tests)
}

type cached struct {
	value   string
	expires time.Time
}

// Store resolves and caches API keys.
type Store struct {
	sources []Source
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewStore creates a credential store. secretsDir may be empty.
func NewStore(cfg Config, secretsDir string) *Store {
	if len(cfg.Sources) == 0 {
		cfg.Sources = []Source{EnvSource{}}
		if secretsDir != "" {
			cfg.Sources = append(cfg.Sources, DirSource{Dir: secretsDir})
		}
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		sources: cfg.Sources,
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
		now:     cfg.Now,
		cache:   make(map[string]cached),
	}
}

// KeyName returns the environment name of a provider's API key.
func KeyName(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// APIKey returns the API key for provider. A key that no source has
// returns *errdefs.ConfigError.
func (s *Store) APIKey(ctx context.Context, provider string) (string, error) {
	name := KeyName(provider)

	if s.ttl > 0 {
		s.mu.Lock()
		c, ok := s.cache[name]
		s.mu.Unlock()
		if ok && s.now().Before(c.expires) {
			return c.value, nil
		}
	}

	for _, src := range s.sources {
		v, ok, err := src.Lookup(ctx, name)
		if err != nil {
			return "", &errdefs.ConfigError{Key: name, Err: err}
		}
		if !ok {
			continue
		}
		if s.ttl > 0 {
			s.mu.Lock()
			s.cache[name] = cached{value: v, expires: s.now().Add(s.ttl)}
			s.mu.Unlock()
		}
		return v, nil
	}

	s.logger.Warn("api key not configured", "key", name)
	return "", &errdefs.ConfigError{Key: name, Err: errors.New("not set")}
}

// Invalidate drops every cached key.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.cache)
}

// Static returns a store backed by fixed values, for tests and one-shot tools.
func Static(values map[string]string) *Store {
	return NewStore(Config{
		Sources: []Source{EnvSource{LookupEnv: func(name string) (string, bool) {
			v, ok := values[name]
			return v, ok
		}}},
		TTL: -1,
	}, "")
}
