package providers

import (
	"github.com/jackzampolin/comply/internal/errdefs"
)

// NewAzureClient is the Azure OpenAI placeholder. It always fails with
// *errdefs.UnsupportedProviderError and performs no I/O.
func NewAzureClient(ClientConfig) (Client, error) {
	return nil, &errdefs.UnsupportedProviderError{Provider: string(Azure)}
}
