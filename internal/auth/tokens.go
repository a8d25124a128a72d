package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of locally signed session tokens.
const Issuer = "agroscan"

// SessionClaims are the JWT claims carried by an admin session.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"preferred_username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TokenVerifier validates a raw token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*SessionClaims, error)
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a signer. An empty secret is replaced by a random one,
// which invalidates sessions on restart.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a session token for the user.
func (t *Tokens) Issue(username, name, email string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: username,
		Name:     name,
		Email:    email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify validates a token signed by Issue.
func (t *Tokens) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Chain tries each verifier in order and returns the first success.
type Chain []TokenVerifier

func (c Chain) Verify(token string) (*SessionClaims, error) {
	err := errors.New("no token verifier configured")
	for _, v := range c {
		if v == nil {
			continue
		}
		var claims *SessionClaims
		if claims, err = v.Verify(token); err == nil {
			return claims, nil
		}
	}
	return nil, err
}
