package providers

import (
	"slices"
	"testing"
	"time"

	"github.com/jackzampolin/comply/internal/errdefs"
)

func TestRegistry_Reload(t *testing.T) {
	deps := Dependencies{Credentials: StaticCredentials{"openai": "k", "anthropic": "k"}}

	r, err := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"openai":    {Type: "openai", Model: "gpt-4o", Enabled: true},
			"anthropic": {Type: "anthropic", Enabled: true},
			"off":       {Type: "openai", Enabled: false},
		},
		Default: "openai",
	}, deps)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}

	if got := r.List(); !slices.Equal(got, []string{"anthropic", "openai"}) {
		t.Errorf("List() = %v", got)
	}
	def, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if def.Provider() != OpenAI || def.Model() != "gpt-4o" {
		t.Errorf("Default() = %s/%s", def.Provider(), def.Model())
	}

	before, _ := r.Get("anthropic")

	// Unchanged entries keep their client; changed ones are rebuilt; removed ones go away.
	err = r.Reload(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"anthropic": {Type: "anthropic", Enabled: true},
			"openai":    {Type: "openai", Model: "gpt-4o-mini", Timeout: 10 * time.Second, Enabled: true},
		},
		Default: "anthropic",
	})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	after, _ := r.Get("anthropic")
	if before != after {
		t.Error("expected unchanged anthropic client to be kept")
	}
	oa, _ := r.Get("openai")
	if oa.Model() != "gpt-4o-mini" {
		t.Errorf("openai model = %s, want gpt-4o-mini", oa.Model())
	}
	if r.DefaultName() != "anthropic" {
		t.Errorf("DefaultName() = %s", r.DefaultName())
	}

	if err := r.Reload(RegistryConfig{Providers: map[string]ProviderConfig{
		"mock": {Type: MockClientName, Enabled: true},
	}}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if r.Has("openai") || !r.Has("mock") {
		t.Errorf("List() = %v", r.List())
	}
	if _, err := r.Default(); err != nil {
		t.Errorf("Default() with a single client error = %v", err)
	}
}

func TestRegistry_ReloadUnsupported(t *testing.T) {
	r := NewRegistry(Dependencies{Credentials: StaticCredentials{"openai": "k"}})
	err := r.Reload(RegistryConfig{Providers: map[string]ProviderConfig{
		"azure":  {Type: "azure", Enabled: true},
		"openai": {Type: "openai", Enabled: true},
	}})
	if _, ok := errdefs.IsUnsupportedProviderError(err); !ok {
		t.Fatalf("Reload() error = %v, want UnsupportedProviderError", err)
	}
	if r.Has("azure") {
		t.Error("azure should not be registered")
	}
	if !r.Has("openai") {
		t.Error("openai should still be registered")
	}
}

func TestRegistry_SystemPromptChangeRebuilds(t *testing.T) {
	system := "v1"
	r := NewRegistry(Dependencies{
		Credentials:  StaticCredentials{"openai": "k"},
		SystemPrompt: func() string { return system },
	})
	cfg := RegistryConfig{Providers: map[string]ProviderConfig{"openai": {Type: "openai", Enabled: true}}}
	if err := r.Reload(cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	first, _ := r.Get("openai")

	system = "v2"
	if err := r.Reload(cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	second, _ := r.Get("openai")
	if first == second {
		t.Fatal("expected client rebuilt after system prompt change")
	}
	if got := second.BuildPrompt("u").Messages[0].Text(); got != "v2" {
		t.Errorf("system prompt = %q, want v2", got)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry(Dependencies{})
	if _, err := r.Get("nope"); err == nil {
		t.Error("expected error")
	}
	if _, err := r.Default(); err == nil {
		t.Error("expected error for empty registry")
	}
	r.Register("m", NewMockClient())
	r.SetDefault("other")
	if _, err := r.Default(); err == nil {
		t.Error("expected error for unregistered default")
	}
	r.Unregister("m")
	if r.Has("m") {
		t.Error("expected m unregistered")
	}
}
