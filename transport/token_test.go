package transport

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": exp.Unix(), "sub": "user-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpiry_ReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got := tokenExpiry(signedToken(t, exp))
	assert.True(t, got.Equal(exp), "got %v want %v", got, exp)
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	assert.True(t, tokenExpiry("not-a-jwt").IsZero())
	assert.True(t, tokenExpiry("").IsZero())
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	t.Run("fresh token", func(t *testing.T) {
		assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now))
	})

	t.Run("expired token", func(t *testing.T) {
		assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	})

	t.Run("token inside the skew window", func(t *testing.T) {
		assert.True(t, tokenExpired(signedToken(t, now.Add(expirySkew/2)), now))
	})

	t.Run("opaque token never proactively expires", func(t *testing.T) {
		assert.False(t, tokenExpired("opaque-session-token", now))
	})
}
