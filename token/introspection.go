package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed bearer token")

// Claims is the client-side view of the backend bearer token. The signature is
// NOT verified: the client only reads the token to show session details and to
// recover an expiry, the backend remains the authority on validity.
type Claims struct {
	Subject   string
	UserID    int64
	Role      string
	Admin     bool
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp claim
}

type backendClaims struct {
	jwtlib.RegisteredClaims
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Admin  bool   `json:"isAdmin"`
}

// Inspect decodes the claims of a JWT without verifying its signature.
func Inspect(rawToken string) (Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Claims{}, ErrMalformedToken
	}

	var bc backendClaims
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &bc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	c := Claims{
		Subject: bc.Subject,
		UserID:  bc.UserID,
		Role:    bc.Role,
		Admin:   bc.Admin,
	}
	if bc.IssuedAt != nil {
		c.IssuedAt = bc.IssuedAt.Time
	}
	if bc.ExpiresAt != nil {
		c.ExpiresAt = bc.ExpiresAt.Time
	}
	return c, nil
}

// Expiry returns the exp claim of rawToken, if it can be read.
func Expiry(rawToken string) (time.Time, bool) {
	c, err := Inspect(rawToken)
	if err != nil || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}
