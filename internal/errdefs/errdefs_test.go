package errdefs

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	base := &FetchError{URL: "https://example.com", StatusCode: 404}
	wrapped := fmt.Errorf("check failed: %w", base)

	fe, ok := IsFetchError(wrapped)
	if !ok {
		t.Fatalf("IsFetchError() = false for %v", wrapped)
	}
	if fe.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", fe.StatusCode)
	}
	if _, ok := IsConfigError(wrapped); ok {
		t.Error("IsConfigError() = true for a fetch error")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"fetch status", &FetchError{URL: "u", StatusCode: 500}, "fetch u: status 500"},
		{"fetch transport", &FetchError{URL: "u", Err: errors.New("refused")}, "fetch u: refused"},
		{"config", &ConfigError{Key: "OPENAI_API_KEY", Err: errors.New("not set")}, "config error: OPENAI_API_KEY: not set"},
		{"unsupported", &UnsupportedProviderError{Provider: "azure"}, `provider "azure" is not supported`},
		{"empty", &EmptyResponseError{Provider: "openai", Model: "gpt-4o"}, "openai (gpt-4o) returned no structured payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := &InvalidResponseError{Provider: "anthropic", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the cause")
	}
}
