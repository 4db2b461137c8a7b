package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownKey is returned for a key that is neither a default entry nor a provider field.
var ErrUnknownKey = errors.New("unknown config key")

// Entry is one scalar configuration key with its default.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// providerFields are the keys accepted under llm_providers.<name>.
var providerFields = []string{"type", "model", "base_url", "timeout_seconds", "max_tokens", "enabled"}

// DefaultEntries returns the scalar keys and their defaults.
// Provider entries live under llm_providers and are keyed by name.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{Key: "defaults.llm_provider", Value: d.Defaults.LLMProvider, Description: "Provider used for compliance checks"},

		{Key: "crawler.timeout_seconds", Value: d.Crawler.TimeoutSeconds, Description: "Page fetch timeout in seconds"},
		{Key: "crawler.max_bytes", Value: d.Crawler.MaxBytes, Description: "Maximum page body size read"},
		{Key: "crawler.user_agent", Value: d.Crawler.UserAgent, Description: "User-Agent sent when fetching pages"},

		{Key: "prompts.system_file", Value: d.Prompts.SystemFile, Description: "Override file for the system prompt"},
		{Key: "prompts.user_file", Value: d.Prompts.UserFile, Description: "Override file for the user prompt template"},
		{Key: "prompts.properties_file", Value: d.Prompts.PropertiesFile, Description: "Override file for the result schema properties"},

		{Key: "credentials.cache_ttl_seconds", Value: d.Credentials.CacheTTLSeconds, Description: "How long resolved API keys are cached (0 disables)"},
		{Key: "credentials.secrets_dir", Value: d.Credentials.SecretsDir, Description: "Directory holding {provider}_api_key files"},

		{Key: "auth.secret_key", Value: d.Auth.SecretKey, Description: "Token signing secret (uses environment variable)"},
		{Key: "auth.algorithm", Value: d.Auth.Algorithm, Description: "Token signing algorithm"},
		{Key: "auth.token_expire_minutes", Value: d.Auth.TokenExpireMinutes, Description: "Bearer token lifetime in minutes"},
		{Key: "auth.users_db", Value: d.Auth.UsersDB, Description: "Users database path (default: {home}/users.db)"},

		{Key: "server.host", Value: d.Server.Host, Description: "HTTP listen host"},
		{Key: "server.port", Value: d.Server.Port, Description: "HTTP listen port"},
		{Key: "server.check_timeout_seconds", Value: d.Server.CheckTimeoutSeconds, Description: "Deadline for one check served over HTTP"},
	}
}

// GetDefault returns the default entry for key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey reports whether key names a known configuration value.
func ValidateKey(key string) error {
	if GetDefault(key) != nil {
		return nil
	}
	parts := strings.Split(key, ".")
	if parts[0] == "llm_providers" {
		switch {
		case len(parts) == 1:
			return nil
		case len(parts) == 2 && parts[1] != "":
			return nil
		case len(parts) == 3 && parts[1] != "" && slices.Contains(providerFields, parts[2]):
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownKey, key)
}
