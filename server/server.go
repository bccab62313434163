package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/users"
	"github.com/rs/zerolog/log"
)

const readHeaderTimeout = 10 * time.Second

// Result is the outcome of the external login, delivered once.
type Result struct {
	User *users.AuthUser
	Err  error
}

// Server is a loopback HTTP listener that receives the identity provider's
// redirect, drives the login flow to completion and reports the outcome.
type Server struct {
	mux          *http.ServeMux
	routes       []string
	httpServer   *http.Server
	listener     net.Listener
	addr         string
	callbackPath string
	flow         *auth.Flow
	colour       bool

	baseCtx context.Context
	results chan Result
	once    sync.Once
}

type Option func(*Server)

// WithListenAddr overrides the address derived from the redirect URI, e.g.
// "127.0.0.1:0" in tests.
func WithListenAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithColour enables ANSI colours in request logs.
func WithColour(enabled bool) Option {
	return func(s *Server) {
		s.colour = enabled
	}
}

// New prepares a server for the host, port and path of callbackURL.
func New(callbackURL string, flow *auth.Flow, opts ...Option) (*Server, error) {
	if flow == nil {
		return nil, errors.New("[Server New] login flow is required")
	}
	addr, path, err := listenTarget(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s := &Server{
		mux:          http.NewServeMux(),
		addr:         addr,
		callbackPath: path,
		flow:         flow,
		results:      make(chan Result, 1),
		baseCtx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+s.callbackPath, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Start binds the listener and serves in the background. ctx bounds the code
// exchange triggered by the callback.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("[Server Start] listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.baseCtx = ctx

	log.Debug().Str("addr", ln.Addr().String()).Strs("routes", s.routes).Msg("callback server listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("callback server stopped")
			s.deliver(Result{Err: err})
		}
	}()
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// CallbackURL is the redirect URI the server answers on.
func (s *Server) CallbackURL() string {
	return "http://" + s.Addr() + s.callbackPath
}

// Results delivers exactly one Result.
func (s *Server) Results() <-chan Result {
	return s.results
}

// Wait blocks for the login outcome or until ctx is done.
func (s *Server) Wait(ctx context.Context) (*users.AuthUser, error) {
	select {
	case res := <-s.results:
		return res.User, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("[Server Shutdown] %w", err)
	}
	return nil
}

// deliver reports the first outcome and drops the rest.
func (s *Server) deliver(res Result) bool {
	delivered := false
	s.once.Do(func() {
		s.results <- res
		delivered = true
	})
	return delivered
}

// listenTarget derives host:port and path from the redirect URI.
func listenTarget(callbackURL string) (string, string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid callback url %q: %w", callbackURL, err)
	}
	if u.Scheme != "http" {
		return "", "", fmt.Errorf("callback url %q must use http to be served locally", callbackURL)
	}
	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("callback url %q has no host", callbackURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = RouteCallback
	}
	path = "/" + strings.TrimLeft(path, "/")
	return net.JoinHostPort(host, port), path, nil
}
