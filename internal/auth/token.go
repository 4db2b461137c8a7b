// Package auth issues and validates bearer tokens and stores the users
// allowed to request compliance checks.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jackzampolin/comply/internal/errdefs"
)

const (
	DefaultAlgorithm = "HS256"
	DefaultExpiry    = 30 * time.Minute
)

// ErrInvalidToken is returned by Validate for any token that does not verify.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with one shared secret and one pinned
// HMAC algorithm.
type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. algorithm is one of HS256, HS384, HS512;
// empty selects HS256. A zero expiry selects DefaultExpiry.
func NewIssuer(secret, algorithm string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, &errdefs.ConfigError{Key: "auth.secret_key", Err: errors.New("not set")}
	}
	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{
		secret: []byte(secret),
		method: method,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

func signingMethod(algorithm string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, &errdefs.ConfigError{Key: "auth.algorithm", Err: fmt.Errorf("unsupported algorithm %q", algorithm)}
	}
}

// Expiry returns the token lifetime.
func (i *Issuer) Expiry() time.Duration { return i.expiry }

// Issue returns a signed token for username.
func (i *Issuer) Issue(username string) (string, error) {
	now := i.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
	}}
	token := jwt.NewWithClaims(i.method, claims)
	return token.SignedString(i.secret)
}

// Validate parses tokenStr and returns its claims. Tokens signed with any
// algorithm other than the issuer's are rejected.
func (i *Issuer) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != i.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
