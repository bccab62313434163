package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const dotEnvFile = ".env"

// Each setting is read from the first variable that is set. The NEXT_PUBLIC_*
// and REACT_APP_* names are accepted so an existing web front-end .env file
// can be shared with the command-line client.
var (
	apiURLVars        = []string{"CITYPULSE_API_URL", "NEXT_PUBLIC_API_URL", "REACT_APP_API_URL"}
	mapsKeyVars       = []string{"CITYPULSE_MAPS_API_KEY", "NEXT_PUBLIC_GOOGLE_MAPS_API_KEY", "REACT_APP_GOOGLE_MAPS_API_KEY"}
	auth0DomainVars   = []string{"CITYPULSE_AUTH0_DOMAIN", "NEXT_PUBLIC_AUTH0_DOMAIN", "REACT_APP_AUTH0_DOMAIN"}
	auth0ClientVars   = []string{"CITYPULSE_AUTH0_CLIENT_ID", "NEXT_PUBLIC_AUTH0_CLIENT_ID", "REACT_APP_AUTH0_CLIENT_ID"}
	auth0CallbackVars = []string{"CITYPULSE_AUTH0_CALLBACK_URL", "NEXT_PUBLIC_AUTH0_CALLBACK_URL", "REACT_APP_AUTH0_CALLBACK_URL"}
	sessionFileVars   = []string{"CITYPULSE_SESSION_FILE"}
	logLevelVars      = []string{"CITYPULSE_LOG_LEVEL"}
	logFormatVars     = []string{"CITYPULSE_LOG_FORMAT"}
	httpTimeoutVars   = []string{"CITYPULSE_HTTP_TIMEOUT"}
	appNameVars       = []string{"CITYPULSE_APP_NAME"}
)

func (c *Config) applyEnvOverrides() {
	overrideString(&c.AppName, appNameVars)
	overrideString(&c.API.BaseURL, apiURLVars)
	overrideString(&c.Maps.APIKey, mapsKeyVars)
	overrideString(&c.Auth0.Domain, auth0DomainVars)
	overrideString(&c.Auth0.ClientID, auth0ClientVars)
	overrideString(&c.Auth0.CallbackURL, auth0CallbackVars)
	overrideString(&c.Session.File, sessionFileVars)
	overrideString(&c.Logging.Level, logLevelVars)
	overrideString(&c.Logging.Format, logFormatVars)

	if timeout := GetEnv(httpTimeoutVars...); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.API.Timeout.Duration = d
		} else {
			log.Warn().Str("value", timeout).Msg("ignoring unparsable CITYPULSE_HTTP_TIMEOUT")
		}
	}
}

func overrideString(dst *string, vars []string) {
	if v := GetEnv(vars...); v != "" {
		*dst = v
	}
}

// GetEnv returns the value of the first non-empty environment variable.
func GetEnv(envVars ...string) string {
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			return value
		}
	}
	return ""
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
