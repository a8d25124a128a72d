package auth

import (
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSConfig holds the external identity provider configuration.
type JWKSConfig struct {
	Domain   string // e.g., "https://login.example.com"
	Audience string // optional API audience identifier
}

// JWKSVerifier validates RS256 tokens issued by an external identity
// provider against its published key set.
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	audience string
	issuer   string
}

// NewJWKSVerifier creates a verifier for the provider at cfg.Domain.
func NewJWKSVerifier(cfg JWKSConfig) (*JWKSVerifier, error) {
	issuer := strings.TrimSuffix(cfg.Domain, "/")
	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", issuer)

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS keyfunc: %w", err)
	}

	return newJWKSVerifier(jwks, issuer, cfg.Audience), nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, issuer, audience string) *JWKSVerifier {
	return &JWKSVerifier{jwks: jwks, issuer: issuer, audience: audience}
}

// Verify validates a JWT and returns its claims.
func (v *JWKSVerifier) Verify(tokenString string) (*SessionClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, v.jwks.Keyfunc, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
