package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/comply/internal/crawler"
	"github.com/jackzampolin/comply/internal/credentials"
	"github.com/jackzampolin/comply/internal/providers"
)

// EnvPrefix prefixes environment overrides: COMPLY_SERVER_PORT sets server.port.
const EnvPrefix = "COMPLY"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// With an empty cfgFile it looks for config.yaml in the working directory,
// then in homeDir. A missing file is not an error.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	setDefaults(v, DefaultConfig())

	// Environment variables with COMPLY_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf key so environment overrides apply on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	providersDefault := make(map[string]any, len(d.LLMProviders))
	for name, p := range d.LLMProviders {
		providersDefault[name] = map[string]any{
			"type":            p.Type,
			"model":           p.Model,
			"base_url":        p.BaseURL,
			"timeout_seconds": p.TimeoutSeconds,
			"max_tokens":      p.MaxTokens,
			"enabled":         p.Enabled,
		}
	}
	v.SetDefault("llm_providers", providersDefault)

	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SetLogger sets the logger used to report reload failures.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Value returns the effective value of a single key.
func (cm *Manager) Value(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if !cm.v.IsSet(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return cm.v.Get(key), nil
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			logger := cm.logger
			cm.mu.RUnlock()
			logger.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Providers: make(map[string]providers.ProviderConfig, len(c.LLMProviders)),
		Default:   c.Defaults.LLMProvider,
	}
	for name, llm := range c.LLMProviders {
		cfg.Providers[name] = providers.ProviderConfig{
			Type:      llm.Type,
			Model:     llm.Model,
			BaseURL:   ResolveEnvVars(llm.BaseURL),
			Timeout:   seconds(llm.TimeoutSeconds),
			MaxTokens: llm.MaxTokens,
			Enabled:   llm.Enabled,
		}
	}
	return cfg
}

// ToCrawlerConfig converts the crawler section.
func (c *Config) ToCrawlerConfig(logger *slog.Logger) crawler.Config {
	return crawler.Config{
		Timeout:   seconds(c.Crawler.TimeoutSeconds),
		MaxBytes:  c.Crawler.MaxBytes,
		UserAgent: c.Crawler.UserAgent,
		Logger:    logger,
	}
}

// ToCredentialsConfig converts the credentials section. A zero TTL disables caching.
func (c *Config) ToCredentialsConfig(logger *slog.Logger) (credentials.Config, string) {
	ttl := seconds(c.Credentials.CacheTTLSeconds)
	if ttl <= 0 {
		ttl = -time.Second
	}
	return credentials.Config{TTL: ttl, Logger: logger}, ResolveEnvVars(c.Credentials.SecretsDir)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# comply configuration
# Provider API keys are read from the environment at call time:
#   export OPENAI_API_KEY=xxx ANTHROPIC_API_KEY=xxx
# or from files named openai_api_key / anthropic_api_key in credentials.secrets_dir.
# auth.secret_key uses ${ENV_VAR} syntax: export SECRET_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
