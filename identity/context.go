package identity

import (
	"context"
	"sync"

	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
	"github.com/rs/zerolog/log"
)

// Authenticator performs the backend calls behind each identity operation.
// *auth.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*users.AuthUser, error)
	Register(ctx context.Context, username, email, password string) (*users.AuthUser, error)
	CurrentUser(ctx context.Context) (*users.AuthUser, error)
	AuthorizeURL(opts auth.AuthorizeOptions) (string, error)
	ExchangeCode(ctx context.Context, code, state string) (*users.AuthUser, error)
	Logout()
}

// TokenSource reports whether a usable session exists.
type TokenSource interface {
	Token() (string, bool)
}

// State is a snapshot of who is signed in.
type State struct {
	User          *users.AuthUser
	Loading       bool
	Authenticated bool
	Admin         bool
	// Bootstrapped is set once Start has settled, whatever its outcome.
	Bootstrapped bool
}

// Context owns the signed-in user for the lifetime of the process. Every
// operation takes a generation number when it starts and its result is only
// applied if no later operation has started since, so a slow login cannot
// overwrite a newer logout.
type Context struct {
	mu          sync.Mutex
	auth        Authenticator
	tokens      TokenSource
	user        *users.AuthUser
	inflight    int
	generation  uint64
	bootstrap   bool
	closed      bool
	ready       chan struct{}
	readyOnce   sync.Once
	subscribers []chan State
}

func New(authenticator Authenticator, tokens TokenSource) (*Context, error) {
	if authenticator == nil {
		return nil, errors.New("[identity New] authenticator is required")
	}
	if tokens == nil {
		return nil, errors.New("[identity New] token source is required")
	}
	return &Context{
		auth:   authenticator,
		tokens: tokens,
		ready:  make(chan struct{}),
	}, nil
}

// Start resolves the stored session into a user. Failures leave the context
// signed out and are logged, not returned.
func (c *Context) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.bootstrap = true
	c.notify()
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
	return nil
}

// Stop closes the context. Later mutations fail with ErrClosed and all
// subscriber channels are closed.
func (c *Context) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.readyOnce.Do(func() { close(c.ready) })
}

// WaitReady blocks until Start has settled, the context is stopped or ctx is
// done.
func (c *Context) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.bootstrap {
			return errors.ErrClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Subscribe returns a channel receiving the latest State after every change.
// A slow reader only ever sees the most recent state.
func (c *Context) Subscribe() <-chan State {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch
	}
	ch <- c.snapshot()
	c.subscribers = append(c.subscribers, ch)
	return ch
}

func (c *Context) LoginWithEmail(ctx context.Context, email, password string) error {
	return c.signIn(func() (*users.AuthUser, error) {
		return c.auth.Login(ctx, email, password)
	})
}

func (c *Context) RegisterWithEmail(ctx context.Context, username, email, password string) error {
	return c.signIn(func() (*users.AuthUser, error) {
		return c.auth.Register(ctx, username, email, password)
	})
}

// BeginExternalLogin returns the URL the user must visit. The login only
// completes when CompleteExternalLogin is called with the callback code.
func (c *Context) BeginExternalLogin(opts auth.AuthorizeOptions) (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", errors.ErrClosed
	}

	authURL, err := c.auth.AuthorizeURL(opts)
	if err != nil {
		log.Error().Err(err).Msg("external login is not configured correctly")
		return "", err
	}
	return authURL, nil
}

func (c *Context) CompleteExternalLogin(ctx context.Context, code, state string) error {
	return c.signIn(func() (*users.AuthUser, error) {
		return c.auth.ExchangeCode(ctx, code, state)
	})
}

// ExternalLogin adapts the context for auth.Flow so the flow's exchange
// updates the signed-in user.
func (c *Context) ExternalLogin() auth.Exchanger {
	return externalLogin{c}
}

// Logout clears the session and the user. Any operation still in flight is
// superseded and its result dropped.
func (c *Context) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClosed
	}
	c.auth.Logout()
	c.generation++
	c.user = nil
	c.notify()
	return nil
}

// Refresh fetches the profile for the stored token again. Without a token,
// or when the fetch fails, the context is signed out.
func (c *Context) Refresh(ctx context.Context) error {
	gen, err := c.begin()
	if err != nil {
		return err
	}

	if _, ok := c.tokens.Token(); !ok {
		c.finish(gen, nil, true)
		return nil
	}

	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch current user")
		c.finish(gen, nil, true)
		return nil
	}
	c.finish(gen, user, true)
	return nil
}

func (c *Context) signIn(call func() (*users.AuthUser, error)) error {
	gen, err := c.begin()
	if err != nil {
		return err
	}

	user, err := call()
	if err != nil {
		c.finish(gen, nil, false)
		return err
	}
	c.finish(gen, user, true)
	return nil
}

func (c *Context) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, errors.ErrClosed
	}
	c.generation++
	c.inflight++
	c.notify()
	return c.generation, nil
}

// finish ends an operation started at gen. The user is replaced only when
// apply is set and the operation is still the latest one.
func (c *Context) finish(gen uint64, user *users.AuthUser, apply bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
	if c.closed {
		return
	}
	if apply {
		if gen == c.generation {
			c.user = user
		} else {
			log.Debug().Uint64("generation", gen).Uint64("current", c.generation).Msg("discarding stale identity result")
		}
	}
	c.notify()
}

func (c *Context) snapshot() State {
	s := State{
		Loading:      !c.bootstrap || c.inflight > 0,
		Bootstrapped: c.bootstrap,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
		s.Authenticated = true
		s.Admin = u.IsAdmin()
	}
	return s
}

// notify must be called with mu held.
func (c *Context) notify() {
	s := c.snapshot()
	for _, ch := range c.subscribers {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

type externalLogin struct {
	c *Context
}

func (e externalLogin) AuthorizeURL(opts auth.AuthorizeOptions) (string, error) {
	return e.c.BeginExternalLogin(opts)
}

func (e externalLogin) ExchangeCode(ctx context.Context, code, state string) (*users.AuthUser, error) {
	if err := e.c.CompleteExternalLogin(ctx, code, state); err != nil {
		return nil, err
	}
	s := e.c.State()
	if s.User == nil {
		return nil, errors.Wrapf(errors.ErrNoSession, "[identity ExternalLogin] login superseded")
	}
	return s.User, nil
}
