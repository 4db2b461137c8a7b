package config

import "time"

// Config holds comply configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Crawler      CrawlerCfg                `mapstructure:"crawler" yaml:"crawler"`
	Prompts      PromptsCfg                `mapstructure:"prompts" yaml:"prompts"`
	Credentials  CredentialsCfg            `mapstructure:"credentials" yaml:"credentials"`
	Auth         AuthCfg                   `mapstructure:"auth" yaml:"auth"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures an LLM provider.
// API keys are not configured here; they are read at call time as {TYPE}_API_KEY.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`                       // "openai", "anthropic", "azure", "mock"
	Model          string `mapstructure:"model" yaml:"model"`                     // Model name
	BaseURL        string `mapstructure:"base_url" yaml:"base_url,omitempty"`     // Optional endpoint override (supports ${ENV_VAR} syntax)
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Per-call timeout
	MaxTokens      int    `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"` // Anthropic only
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Provider used for checks
}

// CrawlerCfg configures page fetching.
type CrawlerCfg struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxBytes       int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
}

// PromptsCfg points at optional prompt and schema override files.
// Empty paths use the embedded defaults.
type PromptsCfg struct {
	SystemFile     string `mapstructure:"system_file" yaml:"system_file"`
	UserFile       string `mapstructure:"user_file" yaml:"user_file"`
	PropertiesFile string `mapstructure:"properties_file" yaml:"properties_file"`
}

// CredentialsCfg configures API key resolution.
type CredentialsCfg struct {
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"` // 0 disables caching
	SecretsDir      string `mapstructure:"secrets_dir" yaml:"secrets_dir"`             // Optional directory of key files
}

// AuthCfg configures bearer tokens and the user database.
type AuthCfg struct {
	SecretKey          string `mapstructure:"secret_key" yaml:"secret_key"` // Supports ${ENV_VAR} syntax
	Algorithm          string `mapstructure:"algorithm" yaml:"algorithm"`   // HS256, HS384 or HS512
	TokenExpireMinutes int    `mapstructure:"token_expire_minutes" yaml:"token_expire_minutes"`
	UsersDB            string `mapstructure:"users_db" yaml:"users_db"` // Default: {home}/users.db
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host                string `mapstructure:"host" yaml:"host"`
	Port                string `mapstructure:"port" yaml:"port"`
	CheckTimeoutSeconds int    `mapstructure:"check_timeout_seconds" yaml:"check_timeout_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				TimeoutSeconds: 60,
				Enabled:        true,
			},
			"anthropic": {
				Type:           "anthropic",
				Model:          "claude-3-5-sonnet-latest",
				TimeoutSeconds: 60,
				MaxTokens:      1024,
				Enabled:        true,
			},
			"azure": {
				Type:    "azure",
				Enabled: false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
		Crawler: CrawlerCfg{
			TimeoutSeconds: 30,
			MaxBytes:       10 * 1024 * 1024,
			UserAgent:      "comply/1.0 (+https://github.com/jackzampolin/comply)",
		},
		Credentials: CredentialsCfg{
			CacheTTLSeconds: 300,
		},
		Auth: AuthCfg{
			SecretKey:          "${SECRET_KEY}",
			Algorithm:          "HS256",
			TokenExpireMinutes: 30,
		},
		Server: ServerCfg{
			Host:                "127.0.0.1",
			Port:                "8080",
			CheckTimeoutSeconds: 120,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// CheckTimeout bounds one whole compliance check served over HTTP.
func (c *Config) CheckTimeout() time.Duration {
	return seconds(c.Server.CheckTimeoutSeconds)
}

// TokenExpiry is the bearer token lifetime.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Auth.TokenExpireMinutes) * time.Minute
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
