package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens, err := NewTokens("round-trip-secret-123", time.Hour)
	require.NoError(t, err)

	token, expires, err := tokens.Issue("admin", "Admin User", "admin@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "Admin User", claims.Name)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestTokens_Rejects(t *testing.T) {
	tokens, err := NewTokens("first-secret-0123456", time.Hour)
	require.NoError(t, err)
	other, err := NewTokens("second-secret-012345", time.Hour)
	require.NoError(t, err)

	token, _, err := tokens.Issue("admin", "", "")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { tokens.now = time.Now }()
		_, err := tokens.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not.a.token")
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Subject:   "admin",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Verify(unsigned)
		assert.Error(t, err)
	})
}

func TestNewTokens_RandomSecret(t *testing.T) {
	a, err := NewTokens("", 0)
	require.NoError(t, err)
	b, err := NewTokens("", 0)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, a.TTL())

	token, _, err := a.Issue("demo", "", "")
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	first, _ := NewTokens("first-secret-0123456", time.Hour)
	second, _ := NewTokens("second-secret-012345", time.Hour)
	token, _, err := second.Issue("admin", "", "")
	require.NoError(t, err)

	claims, err := Chain{nil, first, second}.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = Chain{first}.Verify(token)
	assert.Error(t, err)

	_, err = Chain{}.Verify(token)
	assert.Error(t, err)
}

func testJWKS(t *testing.T, key *rsa.PrivateKey, kid string) keyfunc.Keyfunc {
	t.Helper()
	b64 := base64.RawURLEncoding.EncodeToString
	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   b64(key.N.Bytes()),
			"e":   b64(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	k, err := keyfunc.NewJWKSetJSON(raw)
	require.NoError(t, err)
	return k
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	issuer := "https://login.example.com"
	v := newJWKSVerifier(testJWKS(t, key, "k1"), issuer, "agroscan-api")

	sign := func(claims *SessionClaims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}
	claimsFor := func(iss, aud string) *SessionClaims {
		return &SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    iss,
				Subject:   "idp|123",
				Audience:  jwt.ClaimStrings{aud},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email: "agronomist@example.com",
		}
	}

	claims, err := v.Verify(sign(claimsFor(issuer, "agroscan-api")))
	require.NoError(t, err)
	assert.Equal(t, "idp|123", claims.Subject)
	assert.Equal(t, "agronomist@example.com", claims.Email)

	for name, c := range map[string]*SessionClaims{
		"wrong issuer":   claimsFor("https://evil.example.com", "agroscan-api"),
		"wrong audience": claimsFor(issuer, "other"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(sign(c))
			assert.Error(t, err, fmt.Sprintf("%s should be rejected", name))
		})
	}
}
