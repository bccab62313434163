package auth_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
	"github.com/stretchr/testify/require"
)

// fakeExchanger records the code it was asked to redeem.
type fakeExchanger struct {
	authorizeErr error
	exchangeErr  error
	gotCode      string
	gotState     string
	block        chan struct{}
}

func (e *fakeExchanger) AuthorizeURL(opts auth.AuthorizeOptions) (string, error) {
	if e.authorizeErr != nil {
		return "", e.authorizeErr
	}
	return "https://" + testDomain + "/authorize?state=" + url.QueryEscape(opts.State), nil
}

func (e *fakeExchanger) ExchangeCode(ctx context.Context, code, state string) (*users.AuthUser, error) {
	if e.block != nil {
		<-e.block
	}
	e.gotCode, e.gotState = code, state
	if e.exchangeErr != nil {
		return nil, e.exchangeErr
	}
	return &users.AuthUser{ID: 5, Email: testEmail, AuthProvider: users.ProviderAuth0}, nil
}

func beginFlow(t *testing.T, ex *fakeExchanger) (*auth.Flow, string) {
	t.Helper()
	flow := auth.NewFlow(ex)
	raw, err := flow.Begin(auth.AuthorizeOptions{ScreenHint: auth.ScreenHintLogin})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, auth.FlowRedirecting, flow.State())
	return flow, state
}

func TestFlow_HappyPath(t *testing.T) {
	ex := &fakeExchanger{}
	flow, state := beginFlow(t, ex)

	require.NoError(t, flow.Receive("abc", state))
	require.Equal(t, auth.FlowCallbackReceived, flow.State())

	user, err := flow.Exchange(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), user.ID)
	require.Equal(t, auth.FlowAuthenticated, flow.State())
	require.Equal(t, user, flow.User())
	require.Equal(t, "abc", ex.gotCode)
	require.Equal(t, state, ex.gotState)
}

func TestFlow_CallerSuppliedState(t *testing.T) {
	flow := auth.NewFlow(&fakeExchanger{})
	_, err := flow.Begin(auth.AuthorizeOptions{State: "my-state-value"})
	require.NoError(t, err)
	require.NoError(t, flow.Receive("abc", "my-state-value"))
}

func TestFlow_MissingCodeFails(t *testing.T) {
	flow, state := beginFlow(t, &fakeExchanger{})

	err := flow.Receive("", state)
	require.ErrorIs(t, err, errors.ErrMissingCode)
	require.Equal(t, auth.FlowFailed, flow.State())
	require.ErrorIs(t, flow.Err(), errors.ErrMissingCode)
}

func TestFlow_StateMismatchFails(t *testing.T) {
	flow, _ := beginFlow(t, &fakeExchanger{})

	err := flow.Receive("abc", "forged-state")
	require.ErrorIs(t, err, errors.ErrStateMismatch)
	require.Equal(t, auth.FlowFailed, flow.State())
}

func TestFlow_ExchangeFailure(t *testing.T) {
	backendErr := errors.New("Auth0 login failed")
	flow, state := beginFlow(t, &fakeExchanger{exchangeErr: backendErr})

	require.NoError(t, flow.Receive("abc", state))
	_, err := flow.Exchange(context.Background())
	require.ErrorIs(t, err, backendErr)
	require.Equal(t, auth.FlowFailed, flow.State())
	require.Nil(t, flow.User())
}

func TestFlow_ProviderError(t *testing.T) {
	flow, _ := beginFlow(t, &fakeExchanger{})

	providerErr := errors.New("access_denied")
	require.NoError(t, flow.Fail(providerErr))
	require.Equal(t, auth.FlowFailed, flow.State())
	require.ErrorIs(t, flow.Err(), providerErr)
}

func TestFlow_FailedIsTerminalUntilReset(t *testing.T) {
	flow, _ := beginFlow(t, &fakeExchanger{})
	require.Error(t, flow.Receive("", "x"))

	_, err := flow.Begin(auth.AuthorizeOptions{})
	require.ErrorIs(t, err, errors.ErrInvalidTransition)
	require.ErrorIs(t, flow.Receive("abc", "x"), errors.ErrInvalidTransition)
	_, err = flow.Exchange(context.Background())
	require.ErrorIs(t, err, errors.ErrInvalidTransition)

	flow.Reset()
	require.Equal(t, auth.FlowIdle, flow.State())
	require.NoError(t, flow.Err())

	_, err = flow.Begin(auth.AuthorizeOptions{})
	require.NoError(t, err)
}

func TestFlow_InvalidTransitions(t *testing.T) {
	flow := auth.NewFlow(&fakeExchanger{})

	require.ErrorIs(t, flow.Receive("abc", "state"), errors.ErrInvalidTransition)
	require.ErrorIs(t, flow.Fail(errors.New("x")), errors.ErrInvalidTransition)
	_, err := flow.Exchange(context.Background())
	require.ErrorIs(t, err, errors.ErrInvalidTransition)
	require.Equal(t, auth.FlowIdle, flow.State())
}

func TestFlow_BeginConfigurationErrorStaysIdle(t *testing.T) {
	flow := auth.NewFlow(&fakeExchanger{authorizeErr: errors.ErrConfiguration})

	_, err := flow.Begin(auth.AuthorizeOptions{})
	require.ErrorIs(t, err, errors.ErrConfiguration)
	require.Equal(t, auth.FlowIdle, flow.State())
}

func TestFlow_ChangedSignalsTransitions(t *testing.T) {
	ex := &fakeExchanger{block: make(chan struct{})}
	flow, state := beginFlow(t, ex)
	require.NoError(t, flow.Receive("abc", state))

	changed := flow.Changed()
	done := make(chan error, 1)
	go func() {
		_, err := flow.Exchange(context.Background())
		done <- err
	}()

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("no state change signalled")
	}
	require.Equal(t, auth.FlowExchanging, flow.State())

	close(ex.block)
	require.NoError(t, <-done)
	require.Equal(t, auth.FlowAuthenticated, flow.State())
}

func TestFlow_ResetDuringExchangeDiscardsResult(t *testing.T) {
	ex := &fakeExchanger{block: make(chan struct{})}
	flow, state := beginFlow(t, ex)
	require.NoError(t, flow.Receive("abc", state))

	changed := flow.Changed()
	done := make(chan error, 1)
	go func() {
		_, err := flow.Exchange(context.Background())
		done <- err
	}()
	<-changed

	flow.Reset()
	close(ex.block)

	require.ErrorIs(t, <-done, errors.ErrInvalidTransition)
	require.Equal(t, auth.FlowIdle, flow.State())
	require.Nil(t, flow.User())
}
