package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/api"
	"github.com/jackzampolin/comply/internal/auth"
	"github.com/jackzampolin/comply/internal/svcctx"
)

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenEndpoint handles POST /token.
type TokenEndpoint struct{}

func (e *TokenEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/token", e.handler
}

func (e *TokenEndpoint) RequiresAuth() bool { return false }

// handler godoc
//
//	@Summary		Issue an access token
//	@Description	Exchange a username and password (form encoded) for a bearer token
//	@Tags			auth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string	true	"Username"
//	@Param			password	formData	string	true	"Password"
//	@Success		200			{object}	TokenResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/token [post]
func (e *TokenEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	users := svcctx.UsersFrom(r.Context())
	issuer := svcctx.IssuerFrom(r.Context())
	if users == nil || issuer == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication not configured")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := users.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := issuer.Issue(user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (e *TokenEndpoint) Command(getServerURL func() string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request an access token",
		Long: `Request an access token for a user.

Export the printed token to authenticate other commands:
  export COMPLY_TOKEN=$(comply api token -u alice -p s3cret -o json | jq -r .access_token)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			client := api.NewClient(getServerURL())
			form := url.Values{"username": {username}, "password": {password}}
			var resp TokenResponse
			if err := client.PostForm(cmd.Context(), "/token", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}
