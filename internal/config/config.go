package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/citypulse/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL   = "http://localhost:8081/api"
	DefaultCallbackURL  = "http://localhost:3000/callback"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultAppName      = "CityPulse"
	DefaultLogLevel     = "info"
	sessionFileName     = "session.json"
	sessionDirName      = "citypulse"
	fallbackSessionFile = ".citypulse-session.json"
)

// Config is the complete client configuration. It is loaded and validated once
// at startup and passed down explicitly; nothing else reads the environment.
type Config struct {
	AppName string        `yaml:"app_name"`
	API     APIConfig     `yaml:"api"`
	Auth0   Auth0Config   `yaml:"auth0"`
	Maps    MapsConfig    `yaml:"maps"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type MapsConfig struct {
	APIKey string `yaml:"api_key"`
}

type SessionConfig struct {
	File string `yaml:"file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file in the working directory and the process environment, in
// that order of increasing precedence. The result is validated before return.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, errors.Wrapf(err, "[config Load] read %s", path)
		}
	}

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, errors.Wrapf(err, "[config Load] load %s", dotEnvFile)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(c)
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout.Duration = DefaultHTTPTimeout
	}
	if c.Auth0.CallbackURL == "" {
		c.Auth0.CallbackURL = DefaultCallbackURL
	}
	if c.Session.File == "" {
		c.Session.File = defaultSessionFile()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks the fields every command needs. Optional integrations
// (Auth0, maps) are checked on use by RequireAuth0 and RequireMaps.
func (c *Config) Validate() error {
	if err := validateHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("auth0.callback_url", c.Auth0.CallbackURL); err != nil {
		return err
	}
	if c.API.Timeout.Duration < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", errors.ErrConfiguration)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", errors.ErrConfiguration, c.Logging.Format)
	}
	return nil
}

// RequireMaps fails when the maps API key is not configured.
func (c *Config) RequireMaps() error {
	if c.Maps.APIKey == "" {
		return fmt.Errorf("%w: Google Maps API key missing. Please update your .env.", errors.ErrConfiguration)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrConfiguration, field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", errors.ErrConfiguration, field, raw)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return fallbackSessionFile
	}
	return filepath.Join(dir, sessionDirName, sessionFileName)
}
