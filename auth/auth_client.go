package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	loginPath         = "/auth/login"
	registerPath      = "/auth/register"
	currentUserPath   = "/users/me"
	auth0ExchangePath = "/auth/auth0/callback"
)

// Scopes requested from the identity provider.
var Scopes = []string{oidc.ScopeOpenID, "profile", "email"}

// Client wraps the backend authentication endpoints. Every successful
// login-like call stores the returned token in the session store.
type Client struct {
	api      API
	sessions SessionStore
	auth0    config.Auth0Config
}

func NewClient(api API, sessions SessionStore, auth0 config.Auth0Config) (*Client, error) {
	if api == nil {
		return nil, errors.New("[auth NewClient] api client is required")
	}
	if sessions == nil {
		return nil, errors.New("[auth NewClient] session store is required")
	}
	return &Client{api: api, sessions: sessions, auth0: auth0}, nil
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*users.AuthUser, error) {
	email = strings.TrimSpace(email)
	if err := users.ValidateCredentials(email, password); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrValidation, err)
	}

	var resp AuthResponse
	if err := c.api.Post(ctx, loginPath, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			return nil, &credentialsError{err: err}
		}
		return nil, err
	}
	return c.storeSession(&resp)
}

// credentialsError marks a rejected login while keeping the backend's text.
type credentialsError struct {
	err error
}

func (e *credentialsError) Error() string {
	return e.err.Error()
}

func (e *credentialsError) Unwrap() []error {
	return []error{errors.ErrInvalidCredentials, e.err}
}

// Register creates a local account and signs in with it.
func (c *Client) Register(ctx context.Context, username, email, password string) (*users.AuthUser, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := users.ValidateRegistration(username, email, password); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrValidation, err)
	}

	var resp AuthResponse
	body := RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.api.Post(ctx, registerPath, body, &resp); err != nil {
		return nil, err
	}
	return c.storeSession(&resp)
}

// CurrentUser fetches the profile for the stored token. Without a valid
// session it fails locally and no request is made.
func (c *Client) CurrentUser(ctx context.Context) (*users.AuthUser, error) {
	if _, ok := c.sessions.Token(); !ok {
		return nil, fmt.Errorf("%w: %w", errors.ErrUnauthorized, errors.ErrNoSession)
	}

	var user users.AuthUser
	if err := c.api.Get(ctx, currentUserPath, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout forgets the session. The backend keeps no server-side session.
func (c *Client) Logout() {
	c.sessions.Clear()
}

// AuthorizeURL builds the identity provider's authorization URL. It makes no
// network calls.
func (c *Client) AuthorizeURL(opts AuthorizeOptions) (string, error) {
	if missing := c.auth0.Missing(); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s not set", errors.ErrConfiguration, strings.Join(missing, ", "))
	}
	if err := ValidateAuthorizeOptions(opts); err != nil {
		return "", err
	}

	redirectURI := c.auth0.CallbackURL
	if redirectURI == "" {
		redirectURI = config.DefaultCallbackURL
	}
	if err := ValidateRedirectURI(redirectURI); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrConfiguration, err)
	}

	oauthCfg := &oauth2.Config{
		ClientID: strings.TrimSpace(c.auth0.ClientID),
		Endpoint: oauth2.Endpoint{
			AuthURL: "https://" + normaliseDomain(c.auth0.Domain) + "/authorize",
		},
		RedirectURL: redirectURI,
		Scopes:      Scopes,
	}

	var params []oauth2.AuthCodeOption
	if opts.Connection != "" {
		params = append(params, oauth2.SetAuthURLParam(paramConnection, opts.Connection))
	}
	if opts.ScreenHint != ScreenHintNone {
		params = append(params, oauth2.SetAuthURLParam(paramScreenHint, string(opts.ScreenHint)))
	}

	return oauthCfg.AuthCodeURL(opts.State, params...), nil
}

// ExchangeCode trades an authorization code for a backend session. The
// backend talks to the identity provider; the client never sees its tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*users.AuthUser, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.ErrMissingCode
	}

	params := url.Values{"code": {code}}
	if state != "" {
		params.Set("state", state)
	}

	var resp AuthResponse
	if err := c.api.Get(ctx, auth0ExchangePath+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return c.storeSession(&resp)
}

func (c *Client) storeSession(resp *AuthResponse) (*users.AuthUser, error) {
	if resp.Token == "" {
		return nil, EmptyTokenErr
	}
	c.sessions.Set(resp.Token, resp.ExpiresIn)

	user := resp.User
	log.Info().Int64("userId", user.ID).Str("provider", string(user.AuthProvider)).Msg("signed in")
	return &user, nil
}
