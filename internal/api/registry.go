package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes mounts every endpoint on router.
// authMiddleware wraps handlers that require a bearer token.
func (r *Registry) RegisterRoutes(router chi.Router, authMiddleware func(http.Handler) http.Handler) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresAuth() && authMiddleware != nil {
			router.With(authMiddleware).Method(method, path, handler)
			continue
		}
		router.Method(method, path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running comply server via HTTP.

These commands require a running server (comply serve).
Use --server to specify a custom server URL and --token (or $COMPLY_TOKEN)
for endpoints that require authentication.

Examples:
  comply api health
  comply api token --username alice --password s3cret
  comply api check-compliance https://example.com`,
	}
	apiCmd.PersistentFlags().String("token", "", "Bearer token (default: $"+TokenEnv+")")

	for _, ep := range r.endpoints {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
