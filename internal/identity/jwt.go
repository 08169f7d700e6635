package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"dataroom/internal/dataroom"
)

// JWTTokenProvider derives the identity token from a signed JWT: the raw
// token is verified against an HS256 secret and the subject claim becomes
// the namespace token. Verification runs on every call, so an expired
// token starts failing without a restart.
type JWTTokenProvider struct {
	raw    string
	secret []byte
}

// NewJWTTokenProvider creates a provider for the given raw token and
// signing secret.
func NewJWTTokenProvider(raw string, secret []byte) *JWTTokenProvider {
	return &JWTTokenProvider{raw: raw, secret: secret}
}

func (p *JWTTokenProvider) IdentityToken(_ context.Context) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(p.raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parsing identity token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("identity token is not valid")
	}
	if claims.Subject == "" {
		return "", errors.New("identity token has no subject")
	}
	return claims.Subject, nil
}

// Compile-time check that JWTTokenProvider implements the TokenProvider interface
var _ dataroom.TokenProvider = (*JWTTokenProvider)(nil)
