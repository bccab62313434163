package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateAuthorizeOptions checks the optional authorization URL parameters.
func ValidateAuthorizeOptions(opts AuthorizeOptions) error {
	if !opts.ScreenHint.Valid() {
		return fmt.Errorf("%w: %q", InvalidScreenHintErr, opts.ScreenHint)
	}
	if strings.ContainsAny(opts.Connection, " \n\r\t") {
		return fmt.Errorf("connection must not contain whitespace")
	}
	return ValidateState(opts.State)
}

// ValidateRedirectURI validates redirect URI format
func ValidateRedirectURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("%w: redirect_uri is required", InvalidRedirectURIErr)
	}

	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return fmt.Errorf("%w: redirect_uri must use http or https scheme", InvalidRedirectURIErr)
	}

	if strings.Contains(uri, "#") {
		return fmt.Errorf("%w: redirect_uri must not contain fragments", InvalidRedirectURIErr)
	}

	if _, err := url.Parse(uri); err != nil {
		return fmt.Errorf("%w: %w", InvalidRedirectURIErr, err)
	}
	return nil
}

// ValidateState validates OAuth state parameter
func ValidateState(state string) error {
	// optional, but when present it must be usable as a CSRF check
	if state == "" {
		return nil
	}

	if len(state) < 8 {
		return fmt.Errorf("state parameter should be at least 8 characters")
	}

	if strings.TrimSpace(state) != state {
		return fmt.Errorf("state parameter must not contain leading/trailing whitespace")
	}

	return nil
}

// normaliseDomain accepts "tenant.auth0.com", with or without a scheme or
// trailing slash, and returns the bare host.
func normaliseDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}
