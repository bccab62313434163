package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
	"github.com/rs/zerolog/log"
)

// FlowState is a step of the external (Auth0) login.
type FlowState string

const (
	FlowIdle             FlowState = "idle"
	FlowRedirecting      FlowState = "redirecting"
	FlowCallbackReceived FlowState = "callback-received"
	FlowExchanging       FlowState = "exchanging"
	FlowAuthenticated    FlowState = "authenticated"
	FlowFailed           FlowState = "failed"
)

// Exchanger builds the authorization URL and redeems the returned code.
// *Client implements it.
type Exchanger interface {
	AuthorizeURL(opts AuthorizeOptions) (string, error)
	ExchangeCode(ctx context.Context, code, state string) (*users.AuthUser, error)
}

// Flow drives one external login from URL to session:
//
//	idle -> redirecting -> callback-received -> exchanging -> authenticated | failed
//
// failed is terminal until Reset. Flow is safe for concurrent use; the
// callback server and the waiting command run on different goroutines.
type Flow struct {
	mu       sync.Mutex
	exchange Exchanger
	state    FlowState
	csrf     string
	code     string
	user     *users.AuthUser
	err      error
	changed  chan struct{}
}

func NewFlow(exchange Exchanger) *Flow {
	return &Flow{
		exchange: exchange,
		state:    FlowIdle,
		changed:  make(chan struct{}),
	}
}

// Begin generates a state value when none is given and returns the URL the
// user must open.
func (f *Flow) Begin(opts AuthorizeOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowIdle {
		return "", f.transitionErr(FlowRedirecting)
	}
	if opts.State == "" {
		opts.State = uuid.NewString()
	}

	authURL, err := f.exchange.AuthorizeURL(opts)
	if err != nil {
		return "", err
	}

	f.csrf = opts.State
	f.setState(FlowRedirecting)
	return authURL, nil
}

// Receive records the callback parameters. A missing code or a state that
// does not match the one sent fails the flow.
func (f *Flow) Receive(code, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowRedirecting {
		return f.transitionErr(FlowCallbackReceived)
	}
	if code == "" {
		f.fail(errors.ErrMissingCode)
		return errors.ErrMissingCode
	}
	if state != f.csrf {
		f.fail(errors.ErrStateMismatch)
		return errors.ErrStateMismatch
	}

	f.code = code
	f.setState(FlowCallbackReceived)
	return nil
}

// Fail ends a flow that is waiting for its callback, e.g. when the provider
// redirected back with an error.
func (f *Flow) Fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowRedirecting && f.state != FlowCallbackReceived {
		return f.transitionErr(FlowFailed)
	}
	f.fail(err)
	return nil
}

// Exchange redeems the received code. The lock is not held during the
// network call so State stays readable.
func (f *Flow) Exchange(ctx context.Context) (*users.AuthUser, error) {
	f.mu.Lock()
	if f.state != FlowCallbackReceived {
		err := f.transitionErr(FlowExchanging)
		f.mu.Unlock()
		return nil, err
	}
	code, state := f.code, f.csrf
	f.setState(FlowExchanging)
	f.mu.Unlock()

	user, err := f.exchange.ExchangeCode(ctx, code, state)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowExchanging {
		// reset while the exchange was in flight
		return nil, errors.Wrapf(errors.ErrInvalidTransition, "[auth Flow] exchange superseded")
	}
	if err != nil {
		f.fail(err)
		return nil, err
	}
	f.user = user
	f.setState(FlowAuthenticated)
	return user, nil
}

// Reset returns the flow to idle and forgets its state, code and outcome.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.csrf = ""
	f.code = ""
	f.user = nil
	f.err = nil
	f.setState(FlowIdle)
}

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the failure reason when the flow is failed.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// User returns the signed-in user once authenticated.
func (f *Flow) User() *users.AuthUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

// Changed returns a channel that is closed on the next state change.
func (f *Flow) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

func (f *Flow) fail(err error) {
	log.Warn().Err(err).Str("from", string(f.state)).Msg("external login failed")
	f.err = err
	f.setState(FlowFailed)
}

func (f *Flow) setState(next FlowState) {
	if f.state == next {
		return
	}
	f.state = next
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *Flow) transitionErr(to FlowState) error {
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, f.state, to)
}
