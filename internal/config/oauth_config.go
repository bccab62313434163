package config

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/citypulse/internal/errors"
)

// Auth0Config describes the external identity provider. Domain and ClientID are
// optional at startup; they are required only when an Auth0 login is started.
type Auth0Config struct {
	Domain      string `yaml:"domain"`
	ClientID    string `yaml:"client_id"`
	CallbackURL string `yaml:"callback_url"`
}

// Missing lists the required Auth0 fields that are not set.
func (a Auth0Config) Missing() []string {
	var missing []string
	if strings.TrimSpace(a.Domain) == "" {
		missing = append(missing, "auth0.domain")
	}
	if strings.TrimSpace(a.ClientID) == "" {
		missing = append(missing, "auth0.client_id")
	}
	return missing
}

// RequireAuth0 fails with ErrConfiguration when Auth0 login cannot be started.
func (c *Config) RequireAuth0() error {
	if missing := c.Auth0.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", errors.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
