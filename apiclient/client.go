package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
	defaultUA       = "citypulse-cli"
)

// TokenSource supplies the bearer token and is cleared when the backend
// rejects it. *sessions.Store implements it.
type TokenSource interface {
	Token() (string, bool)
	Clear()
}

// Client executes requests against the backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		userAgent:  defaultUA,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one call. Body may be nil, a *Multipart, a []byte, an
// io.Reader, or any JSON-serializable value.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Response is a parsed 2xx response. JSON is set when the server declared a
// JSON content type and the body decoded; Text holds any other body.
type Response struct {
	StatusCode int
	Header     http.Header
	JSON       json.RawMessage
	Text       string
}

// Absent reports whether the response carried no JSON value.
func (r *Response) Absent() bool {
	return r == nil || len(r.JSON) == 0 || string(r.JSON) == "null"
}

// Decode unmarshals the JSON body into out. An absent body leaves out
// untouched and is not an error.
func (r *Response) Decode(out any) error {
	if out == nil || r.Absent() {
		return nil
	}
	if err := json.Unmarshal(r.JSON, out); err != nil {
		return fmt.Errorf("[apiclient Decode] %w", err)
	}
	return nil
}

// URL resolves path against the base URL. Absolute http(s) URLs pass through.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes req and parses the response. A 401 clears the token source
// before the error is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpResp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", errors.ErrTransport, err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header}
	if strings.Contains(httpResp.Header.Get("Content-Type"), contentTypeJSON) {
		if len(bytes.TrimSpace(raw)) > 0 && json.Valid(raw) {
			resp.JSON = raw
		}
	} else {
		resp.Text = string(raw)
	}

	if !isSuccess(httpResp.StatusCode) {
		return nil, &RequestError{StatusCode: httpResp.StatusCode, Message: errorMessage(resp)}
	}
	return resp, nil
}

// Download streams a 2xx response body into w and returns its content type.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (string, error) {
	httpResp, err := c.send(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if !isSuccess(httpResp.StatusCode) {
		raw, _ := io.ReadAll(httpResp.Body)
		resp := &Response{StatusCode: httpResp.StatusCode}
		if strings.Contains(httpResp.Header.Get("Content-Type"), contentTypeJSON) && json.Valid(raw) {
			resp.JSON = raw
		} else {
			resp.Text = string(raw)
		}
		return "", &RequestError{StatusCode: httpResp.StatusCode, Message: errorMessage(resp)}
	}

	if _, err := io.Copy(w, httpResp.Body); err != nil {
		return "", fmt.Errorf("%w: download: %w", errors.ErrTransport, err)
	}
	return httpResp.Header.Get("Content-Type"), nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	header := req.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	body, err := encodeBody(req.Body, header)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient send] build request: %w", err)
	}
	httpReq.Header = header
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", contentTypeJSON+", text/plain, */*")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(headerRequestID, uuid.NewString())

	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", req.Path).Msg("request failed")
		return nil, fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("requestId", httpReq.Header.Get(headerRequestID)).
		Msg("api request")

	if httpResp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		c.tokens.Clear()
	}
	return httpResp, nil
}

func encodeBody(body any, header http.Header) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case *Multipart:
		r, contentType, err := b.Encode()
		if err != nil {
			return nil, err
		}
		header.Set("Content-Type", contentType)
		return r, nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("[apiclient encodeBody] %w", err)
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentTypeJSON)
		}
		return bytes.NewReader(data), nil
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
