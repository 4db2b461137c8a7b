package endpoints

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/api"
	"github.com/jackzampolin/comply/internal/svcctx"
)

// PromptResponse represents a single prompt as currently resolved.
type PromptResponse struct {
	Key          string   `json:"key"`
	Text         string   `json:"text"`
	Description  string   `json:"description,omitempty"`
	Variables    []string `json:"variables,omitempty"`
	Hash         string   `json:"hash"`
	EmbeddedHash string   `json:"embedded_hash"`
	IsOverride   bool     `json:"is_override"`
	Source       string   `json:"source,omitempty"`
}

// PromptsListResponse contains all prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		List all prompts
//	@Description	Get all registered prompts with the text currently in use
//	@Tags			prompts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	PromptsListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	embedded := resolver.AllEmbedded()
	resp := PromptsListResponse{
		Prompts: make([]PromptResponse, 0, len(embedded)),
	}
	for _, p := range embedded {
		item := PromptResponse{
			Key:          p.Key,
			Text:         p.Text,
			Description:  p.Description,
			Variables:    p.Variables,
			Hash:         p.Hash,
			EmbeddedHash: p.Hash,
		}
		// An unreadable override file is reported by GET /api/prompts/{key}.
		if resolved, err := resolver.Resolve(p.Key); err == nil {
			item.Text = resolved.Text
			item.Variables = resolved.Variables
			item.Hash = resolved.Hash
			item.IsOverride = resolved.IsOverride
			item.Source = resolved.Source
		}
		resp.Prompts = append(resp.Prompts, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL()).WithToken(api.TokenFromCommand(cmd))
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key}", e.handler
}

func (e *GetPromptEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Get a prompt
//	@Description	Get the text currently resolved for a prompt key
//	@Tags			prompts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Prompt key (e.g., verdict.system)"
//	@Success		200	{object}	PromptResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	embedded, ok := resolver.GetEmbedded(key)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}

	resolved, err := resolver.Resolve(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PromptResponse{
		Key:          resolved.Key,
		Text:         resolved.Text,
		Description:  embedded.Description,
		Variables:    resolved.Variables,
		Hash:         resolved.Hash,
		EmbeddedHash: embedded.Hash,
		IsOverride:   resolved.IsOverride,
		Source:       resolved.Source,
	})
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL()).WithToken(api.TokenFromCommand(cmd))
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
