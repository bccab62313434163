package server

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	paramCode             = "code"
	paramState            = "state"
	paramError            = "error"
	paramErrorDescription = "error_description"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CityPulse - {{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; background: #f5f7fa; display: flex; justify-content: center; padding-top: 12vh; }
main { background: #fff; border-radius: 12px; padding: 2rem 2.5rem; max-width: 28rem; box-shadow: 0 2px 12px rgba(0,0,0,.08); }
h1 { font-size: 1.4rem; color: {{if .Failed}}#b42318{{else}}#067647{{end}}; }
p { color: #344054; line-height: 1.5; }
</style>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p>You can close this window and return to the terminal.</p>
</main>
</body>
</html>
`))

type page struct {
	Title   string
	Message string
	Failed  bool
}

// CallbackHandler receives the identity provider's redirect. The first
// request settles the login; later ones are told the link is spent.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if providerErr := q.Get(paramError); providerErr != "" {
			err := providerError(providerErr, q.Get(paramErrorDescription))
			if ferr := s.flow.Fail(err); ferr != nil {
				s.renderSpent(w)
				return
			}
			s.fail(w, http.StatusBadRequest, err)
			return
		}

		if err := s.flow.Receive(q.Get(paramCode), q.Get(paramState)); err != nil {
			if errors.Is(err, errors.ErrInvalidTransition) {
				s.renderSpent(w)
				return
			}
			s.fail(w, http.StatusBadRequest, err)
			return
		}

		user, err := s.flow.Exchange(s.baseCtx)
		if err != nil {
			s.fail(w, http.StatusBadGateway, err)
			return
		}

		s.deliver(Result{User: user})
		s.render(w, http.StatusOK, page{
			Title:   "You're signed in",
			Message: fmt.Sprintf("Welcome, %s.", user.DisplayName()),
		})
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.deliver(Result{Err: err})
	s.render(w, status, page{
		Title:   "Sign-in failed",
		Message: failureMessage(err),
		Failed:  true,
	})
}

func (s *Server) renderSpent(w http.ResponseWriter) {
	s.render(w, http.StatusGone, page{
		Title:   "Sign-in already handled",
		Message: "This sign-in response has already been used. Start a new sign-in from the terminal.",
		Failed:  true,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		log.Error().Err(err).Msg("failed to render callback page")
	}
}

func providerError(code, description string) error {
	if description == "" {
		return errors.Wrapf(errors.ErrUnauthorized, "identity provider returned %s", code)
	}
	return errors.Wrapf(errors.ErrUnauthorized, "identity provider returned %s: %s", code, description)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrMissingCode):
		return "Missing authorization code."
	case errors.Is(err, errors.ErrStateMismatch):
		return "The sign-in response did not match this request. Please try again."
	default:
		return err.Error()
	}
}
