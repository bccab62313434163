package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/citypulse/admin"
	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/complaints"
	"github.com/jrsteele09/citypulse/geocode"
	"github.com/jrsteele09/citypulse/identity"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/jrsteele09/citypulse/sessions"
	"github.com/jrsteele09/citypulse/sessions/filerepo"
)

// App wires the client together for one command invocation.
type App struct {
	Config     *config.Config
	Sessions   *sessions.Store
	API        *apiclient.Client
	Auth       *auth.Client
	Identity   *identity.Context
	Complaints *complaints.Service
	Admin      *admin.Service
	Geocoder   *geocode.Client

	Out io.Writer
	Err io.Writer
}

// NewApp builds every service from cfg. Nothing touches the network until
// Start. version goes into the User-Agent of every request.
func NewApp(cfg *config.Config, version string, out, errOut io.Writer) (*App, error) {
	store := sessions.NewStore(filerepo.New(cfg.Session.File))

	// The backend and the geocoder share one connection pool.
	hc := &http.Client{Timeout: cfg.API.Timeout.Duration}
	ua := apiclient.WithUserAgent(userAgent(version))
	api := apiclient.New(cfg.API.BaseURL, store, apiclient.WithHTTPClient(hc), ua)
	maps := apiclient.New("", nil, apiclient.WithHTTPClient(hc), ua)

	authClient, err := auth.NewClient(api, store, cfg.Auth0)
	if err != nil {
		return nil, err
	}
	ident, err := identity.New(authClient, store)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Sessions:   store,
		API:        api,
		Auth:       authClient,
		Identity:   ident,
		Complaints: complaints.NewService(api),
		Admin:      admin.NewService(api),
		Geocoder:   geocode.New(cfg.Maps.APIKey, geocode.WithAPIClient(maps)),
		Out:        out,
		Err:        errOut,
	}, nil
}

// Start resolves the stored session and waits for it to settle so commands
// never read a half-initialised identity.
func (a *App) Start(ctx context.Context) error {
	if err := a.Identity.Start(ctx); err != nil {
		return err
	}
	return a.Identity.WaitReady(ctx)
}

func userAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "citypulse-cli/" + version
}

func (a *App) Close() {
	a.Identity.Stop()
}
