package auth

import (
	"github.com/jrsteele09/citypulse/users"
)

// ScreenHint tells the identity provider which page to open first.
type ScreenHint string

const (
	// ScreenHintNone leaves the choice to the provider.
	ScreenHintNone ScreenHint = ""

	// ScreenHintLogin opens the sign-in page.
	// Example: /authorize?...&screen_hint=login
	ScreenHintLogin ScreenHint = "login"

	// ScreenHintSignup opens the registration page directly.
	// Example: /authorize?...&screen_hint=signup
	ScreenHintSignup ScreenHint = "signup"
)

const (
	paramConnection = "connection"
	paramScreenHint = "screen_hint"
)

// Valid reports whether the hint is one the provider understands.
func (h ScreenHint) Valid() bool {
	switch h {
	case ScreenHintNone, ScreenHintLogin, ScreenHintSignup:
		return true
	}
	return false
}

// AuthorizeOptions are the optional parts of an authorization URL.
type AuthorizeOptions struct {
	// Connection names an upstream identity connection, e.g. "google-oauth2".
	Connection string
	ScreenHint ScreenHint
	// State is echoed back on the callback and checked by Flow.
	State string
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, register and the Auth0 code exchange.
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expiresIn"`
	User      users.AuthUser `json:"user"`
}
