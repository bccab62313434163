package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/citypulse/internal/errors"
)

const FallbackMessage = "Request failed"

// RequestError is returned for any non-2xx response. Message is the server's
// message field when present, else the raw body text, else "Request failed".
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap maps the status onto the client's sentinel errors.
func (e *RequestError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case http.StatusForbidden:
		return errors.ErrForbidden
	case http.StatusNotFound:
		return errors.ErrNotFound
	default:
		return errors.ErrRequestFailed
	}
}

// StatusCode returns the HTTP status of a RequestError in err's chain, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

func errorMessage(resp *Response) string {
	if resp.JSON != nil {
		var obj struct {
			Message any `json:"message"`
		}
		if err := json.Unmarshal(resp.JSON, &obj); err == nil {
			if msg, ok := obj.Message.(string); ok && msg != "" {
				return msg
			}
		}
		var text string
		if err := json.Unmarshal(resp.JSON, &text); err == nil && text != "" {
			return text
		}
		return FallbackMessage
	}
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	return FallbackMessage
}
