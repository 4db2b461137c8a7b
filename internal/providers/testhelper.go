package providers

import (
	"context"
	"errors"
	"os"

	"github.com/jackzampolin/comply/internal/errdefs"
)

// TestConfig holds provider API keys loaded from environment variables.
// Integration tests skip providers whose keys are absent.
type TestConfig struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

func (c TestConfig) HasOpenAI() bool { return c.OpenAIAPIKey != "" }

func (c TestConfig) HasAnthropic() bool { return c.AnthropicAPIKey != "" }

// HasAnyLLM returns true if any provider is configured.
func (c TestConfig) HasAnyLLM() bool {
	return c.HasOpenAI() || c.HasAnthropic()
}

// Credentials returns a fixed credential set built from the loaded keys.
func (c TestConfig) Credentials() Credentials {
	return StaticCredentials{
		string(OpenAI):    c.OpenAIAPIKey,
		string(Anthropic): c.AnthropicAPIKey,
	}
}

// ToRegistryConfig converts test config to a RegistryConfig.
// Only includes providers that have API keys configured.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{Providers: make(map[string]ProviderConfig)}
	if c.HasOpenAI() {
		cfg.Providers["openai"] = ProviderConfig{Type: string(OpenAI), Enabled: true}
		cfg.Default = "openai"
	}
	if c.HasAnthropic() {
		cfg.Providers["anthropic"] = ProviderConfig{Type: string(Anthropic), Enabled: true}
		if cfg.Default == "" {
			cfg.Default = "anthropic"
		}
	}
	return cfg
}

var errNotSet = errors.New("not set")

// StaticCredentials maps provider names to fixed keys.
type StaticCredentials map[string]string

func (s StaticCredentials) APIKey(_ context.Context, provider string) (string, error) {
	if key := s[provider]; key != "" {
		return key, nil
	}
	return "", &errdefs.ConfigError{Key: provider + " api key", Err: errNotSet}
}
