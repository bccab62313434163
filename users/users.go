package users

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// RoleType is the role name issued by the backend
type RoleType string

const (
	RoleUser  RoleType = "ROLE_USER"
	RoleAdmin RoleType = "ROLE_ADMIN"
)

// AuthProvider identifies how the account signs in
type AuthProvider string

const (
	ProviderLocal AuthProvider = "local"
	ProviderAuth0 AuthProvider = "auth0"
)

const (
	MinPasswordLength = 8
	MaxUsernameLength = 100
)

// AuthUser is the signed-in user's profile. It is never persisted by the
// client; it is fetched again from the backend on every start.
type AuthUser struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Role         RoleType     `json:"role"`
	Admin        bool         `json:"admin"`
	AuthProvider AuthProvider `json:"authProvider"`
}

// IsAdmin reports whether the user may use the admin dashboard
func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Admin
}

// DisplayName returns the username, falling back to the email address
func (u *AuthUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ValidateEmail checks that email is a bare address such as "a@b.com"
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return fmt.Errorf("please provide a valid email address")
	}
	return nil
}

// ValidateCredentials checks login input before it is sent
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateRegistration checks registration input before it is sent
func ValidateRegistration(username, email, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must be %d characters or less", MaxUsernameLength)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
