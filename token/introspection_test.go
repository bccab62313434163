package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/citypulse/token"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signTestToken(t, jwtlib.MapClaims{
		"sub":     "a@b.com",
		"userId":  42,
		"role":    "ROLE_ADMIN",
		"isAdmin": true,
		"iat":     time.Now().Unix(),
		"exp":     exp.Unix(),
	})

	c, err := token.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", c.Subject)
	require.Equal(t, int64(42), c.UserID)
	require.Equal(t, "ROLE_ADMIN", c.Role)
	require.True(t, c.Admin)
	require.True(t, exp.Equal(c.ExpiresAt))

	got, ok := token.Expiry(raw)
	require.True(t, ok)
	require.True(t, exp.Equal(got))
}

func TestInspect_ExpiredTokenStillReadable(t *testing.T) {
	raw := signTestToken(t, jwtlib.MapClaims{
		"sub": "a@b.com",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	c, err := token.Inspect(raw)
	require.NoError(t, err)
	require.True(t, c.ExpiresAt.Before(time.Now()))
}

func TestInspect_Malformed(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := token.Inspect("  ")
		require.ErrorIs(t, err, token.ErrMalformedToken)
	})

	t.Run("opaque token", func(t *testing.T) {
		_, err := token.Inspect("opaque-session-token")
		require.ErrorIs(t, err, token.ErrMalformedToken)

		_, ok := token.Expiry("opaque-session-token")
		require.False(t, ok)
	})

	t.Run("no exp claim", func(t *testing.T) {
		raw := signTestToken(t, jwtlib.MapClaims{"sub": "a@b.com"})
		_, ok := token.Expiry(raw)
		require.False(t, ok)
	})
}
