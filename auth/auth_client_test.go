package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/sessions"
	fakesessionrepo "github.com/jrsteele09/citypulse/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

const (
	testDomain      = "citypulse.eu.auth0.com"
	testClientID    = "client-abc"
	testCallbackURL = "http://localhost:3000/callback"
	testEmail       = "resident@citypulse.test"
	testPassword    = "password123"
)

// testFixture holds the fake backend and the wired client.
type testFixture struct {
	backend  *httptest.Server
	mux      *http.ServeMux
	sessions *sessions.Store
	client   *auth.Client
	requests atomic.Int32
}

func setupFixture(t *testing.T, auth0 config.Auth0Config) *testFixture {
	t.Helper()

	f := &testFixture{mux: http.NewServeMux()}
	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.backend.Close)

	f.sessions = sessions.NewStore(fakesessionrepo.NewFakeSessionRepo())
	api := apiclient.New(f.backend.URL+"/api", f.sessions)

	client, err := auth.NewClient(api, f.sessions, auth0)
	require.NoError(t, err)
	f.client = client
	return f
}

func testAuth0() config.Auth0Config {
	return config.Auth0Config{Domain: testDomain, ClientID: testClientID, CallbackURL: testCallbackURL}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func authResponse(token string) map[string]any {
	return map[string]any{
		"token":     token,
		"expiresIn": 3600,
		"user": map[string]any{
			"id":           12,
			"username":     "resident",
			"email":        testEmail,
			"role":         "ROLE_USER",
			"admin":        false,
			"authProvider": "local",
		},
	}
}

func TestNewClient_RequiresDependencies(t *testing.T) {
	_, err := auth.NewClient(nil, sessions.NewStore(fakesessionrepo.NewFakeSessionRepo()), testAuth0())
	require.Error(t, err)

	_, err = auth.NewClient(apiclient.New("http://localhost", nil), nil, testAuth0())
	require.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	f := setupFixture(t, testAuth0())

	var gotBody auth.LoginRequest
	f.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(t, w, http.StatusOK, authResponse("jwt-login"))
	})

	user, err := f.client.Login(context.Background(), " "+testEmail+" ", testPassword)
	require.NoError(t, err)
	require.Equal(t, int64(12), user.ID)
	require.Equal(t, testEmail, user.Email)
	require.Equal(t, auth.LoginRequest{Email: testEmail, Password: testPassword}, gotBody)

	tok, ok := f.sessions.Token()
	require.True(t, ok)
	require.Equal(t, "jwt-login", tok)
}

func TestClient_LoginValidation(t *testing.T) {
	f := setupFixture(t, testAuth0())

	_, err := f.client.Login(context.Background(), "not-an-email", testPassword)
	require.True(t, errors.Is(err, errors.ErrValidation))

	_, err = f.client.Login(context.Background(), testEmail, "")
	require.True(t, errors.Is(err, errors.ErrValidation))

	require.Zero(t, f.requests.Load())
}

func TestClient_LoginRejected(t *testing.T) {
	f := setupFixture(t, testAuth0())
	f.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
	})

	_, err := f.client.Login(context.Background(), testEmail, "wrong-password")
	require.Error(t, err)
	require.Equal(t, "Invalid email or password", err.Error())
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	require.ErrorIs(t, err, errors.ErrUnauthorized)

	_, ok := f.sessions.Token()
	require.False(t, ok)
}

func TestClient_Register(t *testing.T) {
	f := setupFixture(t, testAuth0())

	var gotBody auth.RegisterRequest
	f.mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(t, w, http.StatusCreated, authResponse("jwt-register"))
	})

	user, err := f.client.Register(context.Background(), "resident", testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, "resident", user.Username)
	require.Equal(t, "resident", gotBody.Username)

	tok, ok := f.sessions.Token()
	require.True(t, ok)
	require.Equal(t, "jwt-register", tok)

	t.Run("short password never reaches the backend", func(t *testing.T) {
		before := f.requests.Load()
		_, err := f.client.Register(context.Background(), "resident", testEmail, "short")
		require.True(t, errors.Is(err, errors.ErrValidation))
		require.Equal(t, before, f.requests.Load())
	})
}

func TestClient_EmptyTokenIsRejected(t *testing.T) {
	f := setupFixture(t, testAuth0())
	f.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, authResponse(""))
	})

	_, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.EmptyTokenErr)
}

func TestClient_CurrentUser(t *testing.T) {
	f := setupFixture(t, testAuth0())
	f.mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 3, "email": "admin@citypulse.test", "admin": true, "role": "ROLE_ADMIN"})
	})

	t.Run("without session", func(t *testing.T) {
		_, err := f.client.CurrentUser(context.Background())
		require.True(t, errors.Is(err, errors.ErrUnauthorized))
		require.True(t, errors.Is(err, errors.ErrNoSession))
		require.Zero(t, f.requests.Load())
	})

	t.Run("with session", func(t *testing.T) {
		f.sessions.Set("jwt-1", 3600)
		user, err := f.client.CurrentUser(context.Background())
		require.NoError(t, err)
		require.True(t, user.IsAdmin())
	})
}

func TestClient_Logout(t *testing.T) {
	f := setupFixture(t, testAuth0())
	f.sessions.Set("jwt-1", 3600)

	f.client.Logout()
	f.client.Logout()

	_, ok := f.sessions.Token()
	require.False(t, ok)
}

func TestClient_AuthorizeURL(t *testing.T) {
	f := setupFixture(t, testAuth0())

	t.Run("minimal", func(t *testing.T) {
		raw, err := f.client.AuthorizeURL(auth.AuthorizeOptions{})
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "https", u.Scheme)
		require.Equal(t, testDomain, u.Host)
		require.Equal(t, "/authorize", u.Path)

		q := u.Query()
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, testClientID, q.Get("client_id"))
		require.Equal(t, testCallbackURL, q.Get("redirect_uri"))
		require.Equal(t, "openid profile email", q.Get("scope"))
		require.False(t, q.Has("connection"))
		require.False(t, q.Has("screen_hint"))
		require.False(t, q.Has("state"))
	})

	t.Run("connection and signup hint", func(t *testing.T) {
		raw, err := f.client.AuthorizeURL(auth.AuthorizeOptions{
			Connection: "google-oauth2",
			ScreenHint: auth.ScreenHintSignup,
			State:      "state-1234",
		})
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "google-oauth2", q.Get("connection"))
		require.Equal(t, "signup", q.Get("screen_hint"))
		require.Equal(t, "state-1234", q.Get("state"))
	})

	t.Run("invalid screen hint", func(t *testing.T) {
		_, err := f.client.AuthorizeURL(auth.AuthorizeOptions{ScreenHint: "register"})
		require.ErrorIs(t, err, auth.InvalidScreenHintErr)
	})

	require.Zero(t, f.requests.Load())
}

func TestClient_AuthorizeURLDefaultsCallback(t *testing.T) {
	f := setupFixture(t, config.Auth0Config{Domain: "https://" + testDomain + "/", ClientID: testClientID})

	raw, err := f.client.AuthorizeURL(auth.AuthorizeOptions{})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, testDomain, u.Host)
	require.Equal(t, config.DefaultCallbackURL, u.Query().Get("redirect_uri"))
}

func TestClient_AuthorizeURLRequiresConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		auth0 config.Auth0Config
		want  string
	}{
		{"missing domain", config.Auth0Config{ClientID: testClientID}, "auth0.domain"},
		{"missing client id", config.Auth0Config{Domain: testDomain}, "auth0.client_id"},
		{"missing both", config.Auth0Config{}, "auth0.domain, auth0.client_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t, tt.auth0)
			_, err := f.client.AuthorizeURL(auth.AuthorizeOptions{})
			require.True(t, errors.Is(err, errors.ErrConfiguration))
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	f := setupFixture(t, testAuth0())

	var gotQuery url.Values
	f.mux.HandleFunc("GET /api/auth/auth0/callback", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		body := authResponse("jwt-auth0")
		body["user"].(map[string]any)["authProvider"] = "auth0"
		writeJSON(t, w, http.StatusOK, body)
	})

	t.Run("with state", func(t *testing.T) {
		user, err := f.client.ExchangeCode(context.Background(), "abc", "xyz-state")
		require.NoError(t, err)
		require.Equal(t, "auth0", string(user.AuthProvider))
		require.Equal(t, "abc", gotQuery.Get("code"))
		require.Equal(t, "xyz-state", gotQuery.Get("state"))

		tok, ok := f.sessions.Token()
		require.True(t, ok)
		require.Equal(t, "jwt-auth0", tok)
	})

	t.Run("without state", func(t *testing.T) {
		_, err := f.client.ExchangeCode(context.Background(), "abc", "")
		require.NoError(t, err)
		require.False(t, gotQuery.Has("state"))
	})

	t.Run("missing code", func(t *testing.T) {
		before := f.requests.Load()
		_, err := f.client.ExchangeCode(context.Background(), "  ", "xyz")
		require.ErrorIs(t, err, errors.ErrMissingCode)
		require.Equal(t, before, f.requests.Load())
	})
}
