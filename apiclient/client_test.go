package apiclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/stretchr/testify/require"
)

// countingTokens is a TokenSource that records how often it was cleared.
type countingTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (c *countingTokens) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != ""
}

func (c *countingTokens) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.cleared++
}

func setupServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	tokens := &countingTokens{token: "abc"}
	c := apiclient.New(srv.URL+"/api", tokens)

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, c.Get(context.Background(), "/users/me", &out))
	require.Equal(t, 7, out.ID)
	require.Equal(t, "Bearer abc", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestClient_OmitsAuthorizationWithoutToken(t *testing.T) {
	var hadAuth bool
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	})

	c := apiclient.New(srv.URL, &countingTokens{})
	require.NoError(t, c.Get(context.Background(), "/complaints", nil))
	require.False(t, hadAuth)
}

func TestClient_URLJoining(t *testing.T) {
	c := apiclient.New("http://localhost:8081/api/", nil)
	require.Equal(t, "http://localhost:8081/api/complaints", c.URL("/complaints"))
	require.Equal(t, "http://localhost:8081/api/complaints", c.URL("complaints"))
	require.Equal(t, "https://maps.example/x", c.URL("https://maps.example/x"))
}

func TestClient_JSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	c := apiclient.New(srv.URL, nil)
	err := c.Put(context.Background(), "/admin/complaints/3/status", map[string]any{"status": "RESOLVED", "notes": "Fixed the leak"}, nil)
	require.NoError(t, err)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, map[string]any{"status": "RESOLVED", "notes": "Fixed the leak"}, gotBody)
}

func TestClient_CallerContentTypeWins(t *testing.T) {
	var gotContentType string
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	})

	c := apiclient.New(srv.URL, nil)
	_, err := c.Do(context.Background(), apiclient.Request{
		Method: http.MethodPost,
		Path:   "/x",
		Body:   map[string]string{"a": "b"},
		Header: http.Header{"Content-Type": []string{"application/merge-patch+json"}},
	})
	require.NoError(t, err)
	require.Equal(t, "application/merge-patch+json", gotContentType)
}

func TestClient_MultipartBody(t *testing.T) {
	var fields = map[string]string{}
	var fileContent string
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				fileContent = string(data)
				continue
			}
			fields[part.FormName()] = string(data)
		}
		w.WriteHeader(http.StatusCreated)
	})

	body := apiclient.NewMultipart().
		AddField("category", "WATER").
		AddField("title", "Leak").
		AddFile("image", "leak.jpg", strings.NewReader("jpegdata"))

	require.True(t, body.HasFile("image"))
	require.False(t, body.HasFile("category"))

	c := apiclient.New(srv.URL, nil)
	require.NoError(t, c.Post(context.Background(), "/complaints", body, nil))
	require.Equal(t, "WATER", fields["category"])
	require.Equal(t, "Leak", fields["title"])
	require.Equal(t, "jpegdata", fileContent)
}

func TestClient_SharedHTTPClientAndUserAgent(t *testing.T) {
	var agents []string
	var mu sync.Mutex
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	hc := &http.Client{Timeout: time.Second}
	backend := apiclient.New(srv.URL, nil, apiclient.WithHTTPClient(hc), apiclient.WithUserAgent("citypulse-cli/9.9"))
	maps := apiclient.New("", nil, apiclient.WithHTTPClient(hc))

	require.NoError(t, backend.Get(context.Background(), "/health", nil))
	require.NoError(t, maps.Get(context.Background(), srv.URL+"/geocode", nil))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"citypulse-cli/9.9", "citypulse-cli"}, agents)
}

func TestClient_UnauthorizedClearsSessionOnce(t *testing.T) {
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	})

	tokens := &countingTokens{token: "stale"}
	c := apiclient.New(srv.URL, tokens)

	err := c.Get(context.Background(), "/users/me", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
	require.Equal(t, "Token expired", err.Error())
	require.Equal(t, 1, tokens.cleared)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))

	_, ok := tokens.Token()
	require.False(t, ok)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		want        string
		sentinel    error
	}{
		{"server message", "application/json", 400, `{"message":"Title is required"}`, "Title is required", errors.ErrRequestFailed},
		{"json without message", "application/json", 500, `{"error":"boom"}`, "Request failed", errors.ErrRequestFailed},
		{"plain text", "text/plain", 404, "Complaint not found", "Complaint not found", errors.ErrNotFound},
		{"empty body", "text/plain", 403, "", "Request failed", errors.ErrForbidden},
		{"malformed json", "application/json", 502, `{oops`, "Request failed", errors.ErrRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c := apiclient.New(srv.URL, nil)
			err := c.Get(context.Background(), "/x", nil)
			require.Error(t, err)
			require.Equal(t, tt.want, err.Error())
			require.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestClient_AbsentBodies(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"no content": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"plain text": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("ok"))
		},
		"empty json": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
		},
		"json null": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("null"))
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			srv := setupServer(t, handler)
			c := apiclient.New(srv.URL, nil)

			resp, err := c.Do(context.Background(), apiclient.Request{Path: "/x"})
			require.NoError(t, err)
			require.True(t, resp.Absent())

			out := map[string]string{"untouched": "yes"}
			require.NoError(t, resp.Decode(&out))
			require.Equal(t, "yes", out["untouched"])
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url, nil)
	err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrTransport))
}

func TestClient_Cancellation(t *testing.T) {
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := apiclient.New(srv.URL, nil)
	err := c.Get(ctx, "/slow", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Download(t *testing.T) {
	srv := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/complaints/1/image" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	c := apiclient.New(srv.URL, nil)

	var buf bytes.Buffer
	ct, err := c.Download(context.Background(), "/complaints/1/image", &buf)
	require.NoError(t, err)
	require.Equal(t, "image/png", ct)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, buf.Bytes())

	_, err = c.Download(context.Background(), "/complaints/2/image", &buf)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
