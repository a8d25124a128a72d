package auth

import (
	"context"
)

type contextKey int

const (
	claimsKey contextKey = iota
)

// Claims returns the session claims from context, or nil if not authenticated.
func Claims(ctx context.Context) *SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*SessionClaims)
	return claims
}

// Username returns the signed-in username, or empty string if not authenticated.
func Username(ctx context.Context) string {
	claims := Claims(ctx)
	if claims == nil {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return claims.Subject
}

// DisplayName returns the full name of the signed-in user, falling back to
// the username.
func DisplayName(ctx context.Context) string {
	claims := Claims(ctx)
	if claims == nil {
		return ""
	}
	if claims.Name != "" {
		return claims.Name
	}
	return Username(ctx)
}

// IsAuthenticated returns true if the request has valid authentication.
func IsAuthenticated(ctx context.Context) bool {
	return Claims(ctx) != nil
}
