package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/streetninja/ninjabrain/config"
)

const JwtAlg = "HS256"

var ErrSecretNotSet = errors.New(
	"auth secret not set. Ensure NINJABRAIN_AUTH_SECRET is set in your environment",
)

// GenerateJWT generates a JWT token using the given config.
// Requires that NINJABRAIN_AUTH_SECRET is set in the environment.
func GenerateJWT(cfg *config.Config) (string, error) {
	tokenAuth, err := newTokenAuth(cfg)
	if err != nil {
		return "", err
	}

	_, tokenString, err := tokenAuth.Encode(nil)
	if err != nil {
		return "", fmt.Errorf("error generating auth token: %w", err)
	}

	return tokenString, nil
}

// JWTVerifier returns middleware that verifies a bearer token, if any, and
// stores the result in the request context for an authenticator to check.
func JWTVerifier(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	tokenAuth, err := newTokenAuth(cfg)
	if err != nil {
		return nil, err
	}
	return jwtauth.Verifier(tokenAuth), nil
}

// Authenticated reports whether the request carried a valid token.
func Authenticated(r *http.Request) bool {
	token, _, err := jwtauth.FromContext(r.Context())
	return err == nil && token != nil
}

func newTokenAuth(cfg *config.Config) (*jwtauth.JWTAuth, error) {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		return nil, ErrSecretNotSet
	}
	return jwtauth.New(JwtAlg, secret, nil), nil
}
