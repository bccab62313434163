package users_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/citypulse/users"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, users.ValidateCredentials("a@b.com", "secret"))
	})

	t.Run("empty email", func(t *testing.T) {
		err := users.ValidateCredentials("", "secret")
		require.Error(t, err)
		require.Contains(t, err.Error(), "email is required")
	})

	t.Run("invalid email", func(t *testing.T) {
		err := users.ValidateCredentials("Bob <a@b.com>", "secret")
		require.Error(t, err)
		require.Contains(t, err.Error(), "valid email")
	})

	t.Run("missing password", func(t *testing.T) {
		err := users.ValidateCredentials("a@b.com", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "password is required")
	})
}

func TestValidateRegistration(t *testing.T) {
	require.NoError(t, users.ValidateRegistration("sam", "sam@city.gov", "longenough"))

	err := users.ValidateRegistration("sam", "sam@city.gov", "short")
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least 8 characters")

	err = users.ValidateRegistration(strings.Repeat("x", 101), "sam@city.gov", "longenough")
	require.Error(t, err)
	require.Contains(t, err.Error(), "100 characters or less")

	err = users.ValidateRegistration("  ", "sam@city.gov", "longenough")
	require.Error(t, err)
	require.Contains(t, err.Error(), "username is required")
}

func TestAuthUser_Helpers(t *testing.T) {
	var nilUser *users.AuthUser
	require.False(t, nilUser.IsAdmin())
	require.Equal(t, "", nilUser.DisplayName())

	u := &users.AuthUser{Email: "a@b.com", Admin: true}
	require.True(t, u.IsAdmin())
	require.Equal(t, "a@b.com", u.DisplayName())

	u.Username = "alex"
	require.Equal(t, "alex", u.DisplayName())
}
