package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret")

	t.Run("Round trip", func(t *testing.T) {
		signed, err := tokens.Issue("user-1")
		require.NoError(t, err)

		id, err := tokens.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id)
	})

	t.Run("Expires after a day", func(t *testing.T) {
		signed, err := tokens.Issue("user-1")
		require.NoError(t, err)

		later := NewTokens("test-secret")
		later.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
		_, err = later.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		signed, err := NewTokens("other-secret").Issue("user-1")
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("Missing expiry", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("Missing user id", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.Error(t, err)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
