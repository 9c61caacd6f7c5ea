// Package auth checks the bearer token admin requests carry.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrExpiredToken = errors.New("bearer token expired")
)

// Principal is an authenticated admin.
type Principal struct {
	Subject string // sub claim; empty when tokens are not verified locally
	Token   string // Raw token, forwarded to the backend
}

// Verifier validates admin bearer tokens. With a secret, tokens must be HS256 JWTs that
// have not expired (and carry the configured issuer, when set). Without a secret any
// non-empty token is accepted and the backend remains the authority.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier creates a verifier. secret may be empty.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}
}

// VerifiesLocally reports whether tokens are checked cryptographically.
func (v *Verifier) VerifiesLocally() bool { return len(v.secret) > 0 }

// Authenticate extracts and checks the bearer token on r.
func (v *Verifier) Authenticate(r *http.Request) (Principal, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Principal{}, err
	}
	return v.Verify(token)
}

// Verify checks a raw token.
func (v *Verifier) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	if !v.VerifiesLocally() {
		return Principal{Token: token}, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, ErrExpiredToken
	case err != nil:
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !parsed.Valid:
		return Principal{}, ErrInvalidToken
	}
	return Principal{Subject: claims.Subject, Token: token}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
