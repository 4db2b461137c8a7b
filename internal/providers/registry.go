package providers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Registry holds the LLM clients built from configuration.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]Client
	built       map[string]builtWith
	defaultName string
	deps        Dependencies
	logger      *slog.Logger
}

// builtWith records what a client was built from so Reload can skip unchanged entries.
type builtWith struct {
	cfg    ProviderConfig
	system string
}

// Dependencies are shared by every client the registry builds.
type Dependencies struct {
	Credentials  Credentials
	SystemPrompt func() string // Optional; empty uses the embedded instruction
	HTTPClient   *http.Client  // Optional (tests)
}

// ProviderConfig matches config.ProviderCfg.
type ProviderConfig struct {
	Type      string        // "openai", "anthropic", "azure", "mock"
	Model     string        // Model name
	BaseURL   string        // Optional endpoint override
	Timeout   time.Duration // Per-call timeout
	MaxTokens int           // Anthropic only
	Enabled   bool
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	Providers map[string]ProviderConfig
	Default   string
}

// NewRegistry creates a new empty provider registry.
func NewRegistry(deps Dependencies) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		built:   make(map[string]builtWith),
		deps:    deps,
		logger:  slog.Default(),
	}
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Providers that fail to build are skipped and reported in the returned error.
func NewRegistryFromConfig(cfg RegistryConfig, deps Dependencies) (*Registry, error) {
	r := NewRegistry(deps)
	err := r.Reload(cfg)
	return r, err
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a client by name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	delete(r.built, name)
	r.logger.Info("registered LLM client", "name", name, "provider", client.Provider(), "model", client.Model())
}

// Unregister removes a client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	delete(r.built, name)
	r.logger.Info("unregistered LLM client", "name", name)
}

// Get returns a client by name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// SetDefault selects the client returned by Default.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// DefaultName returns the configured default client name.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Default returns the default client. With no default configured, a registry
// holding exactly one client returns that client.
func (r *Registry) Default() (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName != "" {
		client, ok := r.clients[r.defaultName]
		if !ok {
			return nil, fmt.Errorf("default LLM client not registered: %s", r.defaultName)
		}
		return client, nil
	}
	if len(r.clients) == 1 {
		for _, client := range r.clients {
			return client, nil
		}
	}
	return nil, fmt.Errorf("no default LLM client configured (%d registered)", len(r.clients))
}

// List returns all registered client names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured are unregistered; providers with
// changed settings are rebuilt. Build failures leave the entry unregistered
// and are returned joined.
func (r *Registry) Reload(cfg RegistryConfig) error {
	system := ""
	if r.deps.SystemPrompt != nil {
		system = r.deps.SystemPrompt()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	want := make(map[string]bool)

	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled {
			continue
		}

		next := builtWith{cfg: provCfg, system: system}
		if prev, ok := r.built[name]; ok && prev == next {
			want[name] = true
			continue
		}

		client, err := r.createClient(provCfg, system)
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", name, err))
			continue
		}
		want[name] = true

		_, existed := r.clients[name]
		r.clients[name] = client
		r.built[name] = next
		if existed {
			r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type, "model", client.Model())
		} else {
			r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type, "model", client.Model())
		}
	}

	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			delete(r.built, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}

	r.defaultName = cfg.Default
	return errors.Join(errs...)
}

// createClient creates a client based on provider type.
func (r *Registry) createClient(cfg ProviderConfig, system string) (Client, error) {
	if cfg.Type == MockClientName {
		m := NewMockClient()
		if cfg.Model != "" {
			m.ModelName = cfg.Model
		}
		return m, nil
	}

	p, err := ParseProvider(cfg.Type)
	if err != nil {
		return nil, err
	}
	return New(p, ClientConfig{
		Model:        cfg.Model,
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		MaxTokens:    cfg.MaxTokens,
		SystemPrompt: system,
		Credentials:  r.deps.Credentials,
		HTTPClient:   r.deps.HTTPClient,
		Logger:       r.logger,
	})
}
