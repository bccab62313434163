package auth

import "context"

// API is the subset of the API client the auth client calls.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// SessionStore holds the bearer token issued by the backend.
type SessionStore interface {
	Token() (string, bool)
	Set(token string, expiresInSeconds int64)
	Clear()
}
