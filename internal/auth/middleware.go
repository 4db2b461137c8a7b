package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// UserLookup resolves the user named in a validated token.
type UserLookup interface {
	Get(ctx context.Context, username string) (*User, error)
}

type userKey struct{}

// Middleware rejects requests without a valid bearer token for a known user
// and stores that user in the request context.
func Middleware(issuer *Issuer, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				WriteUnauthorized(w)
				return
			}
			claims, err := issuer.Validate(tokenStr)
			if err != nil {
				WriteUnauthorized(w)
				return
			}
			user, err := users.Get(r.Context(), claims.Subject)
			if err != nil {
				WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WriteUnauthorized writes the 401 response used for every auth failure.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Could not validate credentials"})
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}
