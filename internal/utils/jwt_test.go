package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessTokenClaims(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "ADMIN", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	parsed, err := jwt.Parse(tok.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.NotZero(t, claims["exp"])
}

func TestNewRefreshTokenHashing(t *testing.T) {
	tok, err := NewRefreshToken(30)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Raw)

	// The stored value is a digest, never the raw token, and hashing is
	// deterministic so lookups can match.
	h1 := HashRefreshRaw(tok.Raw)
	h2 := HashRefreshRaw(tok.Raw)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, tok.Raw, h1)

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, HashRefreshRaw(other.Raw), h1)
}
