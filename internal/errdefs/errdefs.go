// Package errdefs defines the typed failures surfaced by the compliance pipeline.
// Callers match them with errors.As, or the Is* helpers below.
package errdefs

import (
	"errors"
	"fmt"
)

// ConfigError reports a missing or malformed configuration value or credential.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Key)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError reports a failed page fetch. StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmptyResponseError reports a vendor reply without a structured payload.
type EmptyResponseError struct {
	Provider string
	Model    string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("%s (%s) returned no structured payload", e.Provider, e.Model)
}

// InvalidResponseError reports a structured payload that does not match the response schema.
type InvalidResponseError struct {
	Provider string
	Err      error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s returned an invalid payload: %v", e.Provider, e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// UnsupportedProviderError reports a provider tag with no implementation.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("provider %q is not supported", e.Provider)
}

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) (*ConfigError, bool) {
	var target *ConfigError
	ok := errors.As(err, &target)
	return target, ok
}

// IsFetchError reports whether err wraps a FetchError.
func IsFetchError(err error) (*FetchError, bool) {
	var target *FetchError
	ok := errors.As(err, &target)
	return target, ok
}

// IsEmptyResponseError reports whether err wraps an EmptyResponseError.
func IsEmptyResponseError(err error) (*EmptyResponseError, bool) {
	var target *EmptyResponseError
	ok := errors.As(err, &target)
	return target, ok
}

// IsInvalidResponseError reports whether err wraps an InvalidResponseError.
func IsInvalidResponseError(err error) (*InvalidResponseError, bool) {
	var target *InvalidResponseError
	ok := errors.As(err, &target)
	return target, ok
}

// IsUnsupportedProviderError reports whether err wraps an UnsupportedProviderError.
func IsUnsupportedProviderError(err error) (*UnsupportedProviderError, bool) {
	var target *UnsupportedProviderError
	ok := errors.As(err, &target)
	return target, ok
}
