package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/api"
	"github.com/jackzampolin/comply/internal/auth"
	"github.com/jackzampolin/comply/internal/errdefs"
	"github.com/jackzampolin/comply/internal/svcctx"
)

// CheckComplianceResponse is the verdict for one URL.
type CheckComplianceResponse struct {
	IsCompliant     bool    `json:"is_compliant"`
	LLMProvider     string  `json:"llm_provider"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reason          string  `json:"reason"`
	User            string  `json:"user"`
	URL             string  `json:"url"`
}

// CheckComplianceEndpoint handles GET /check-compliance.
type CheckComplianceEndpoint struct{}

func (e *CheckComplianceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/check-compliance", e.handler
}

func (e *CheckComplianceEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Check a page for compliance
//	@Description	Fetch the page at url and ask the default model for a compliance verdict
//	@Tags			compliance
//	@Produce		json
//	@Security		BearerAuth
//	@Param			url	query		string	true	"Page URL"
//	@Success		200	{object}	CheckComplianceResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		424	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		501	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		504	{object}	ErrorResponse
//	@Router			/check-compliance [get]
func (e *CheckComplianceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		auth.WriteUnauthorized(w)
		return
	}

	checker := svcctx.CheckerFrom(r.Context())
	if checker == nil {
		writeError(w, http.StatusServiceUnavailable, "compliance checker not initialized")
		return
	}

	ctx := r.Context()
	if timeout := svcctx.CheckTimeoutFrom(ctx); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := checker.Check(ctx, rawURL)
	if err != nil {
		if logger := svcctx.LoggerFrom(ctx); logger != nil {
			logger.Warn("compliance check failed", "url", rawURL, "user", user.Username, "error", err)
		}
		writeError(w, StatusForError(ctx, err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CheckComplianceResponse{
		IsCompliant:     result.IsCompliant,
		LLMProvider:     string(result.Provider),
		ConfidenceScore: result.ConfidenceScore,
		Reason:          result.Reasoning,
		User:            user.Username,
		URL:             rawURL,
	})
}

// StatusForError maps a failed check to an HTTP status.
// An expired request deadline wins over the error's own type.
func StatusForError(ctx context.Context, err error) int {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch {
	case isFetch(err):
		return http.StatusFailedDependency
	case isUnsupported(err):
		return http.StatusNotImplemented
	case isConfig(err):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// Empty or invalid payloads and raw vendor failures.
		return http.StatusBadGateway
	}
}

func isFetch(err error) bool {
	_, ok := errdefs.IsFetchError(err)
	return ok
}

func isUnsupported(err error) bool {
	_, ok := errdefs.IsUnsupportedProviderError(err)
	return ok
}

func isConfig(err error) bool {
	_, ok := errdefs.IsConfigError(err)
	return ok
}

func (e *CheckComplianceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-compliance <url>",
		Short: "Check a page for compliance on the running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL()).WithToken(api.TokenFromCommand(cmd))
			var resp CheckComplianceResponse
			if err := client.Get(cmd.Context(), "/check-compliance", url.Values{"url": {args[0]}}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
