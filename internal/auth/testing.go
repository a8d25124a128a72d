package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// WithClaims returns a new context with the given claims.
// This is primarily for testing purposes.
func WithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// NewTestClaims creates SessionClaims for the given username and full name.
// This is primarily for testing purposes.
func NewTestClaims(username, name string) *SessionClaims {
	return &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: username,
		},
		Username: username,
		Name:     name,
	}
}
