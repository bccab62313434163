package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/internal/logging"
	"github.com/jrsteele09/citypulse/render"
	"github.com/spf13/cobra"
)

const (
	defaultLoginTimeout = 5 * time.Minute
	msgSignIn           = "You are not signed in or your session has expired. Please sign in with 'citypulse login'."
)

// Options carries the process surroundings into the command tree.
type Options struct {
	Version string
	In      io.Reader
	Out     io.Writer
	Err     io.Writer

	// OpenBrowser opens the authorization URL. Defaults to the platform opener.
	OpenBrowser  func(url string) error
	LoginTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.OpenBrowser == nil {
		o.OpenBrowser = openBrowser
	}
	if o.LoginTimeout == 0 {
		o.LoginTimeout = defaultLoginTimeout
	}
}

// runner holds the state shared by commands during one invocation.
type runner struct {
	opts       Options
	configPath string
	logLevel   string
	app        *App
}

// NewRootCommand builds the citypulse command tree.
func NewRootCommand(opts Options) *cobra.Command {
	root, _ := newRoot(opts)
	return root
}

func newRoot(opts Options) (*cobra.Command, *runner) {
	opts.applyDefaults()
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:           "citypulse",
		Short:         "CityPulse - report and track municipal complaints",
		Long:          "citypulse lets residents report infrastructure problems such as potholes, leaks and broken streetlights, follow their progress, and lets city staff triage them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&r.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.loginAuth0Cmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.statusCmd(),
		r.submitCmd(),
		r.trackCmd(),
		r.mineCmd(),
		r.imageCmd(),
		r.adminCmd(),
		r.geocodeCmd(),
		r.versionCmd(),
	)
	return root, r
}

// Execute runs the command line and returns the process exit code. Every
// failure is printed, none escapes as a panic.
func Execute(ctx context.Context, opts Options, args []string) (code int) {
	opts.applyDefaults()
	root, r := newRoot(opts)
	root.SetArgs(args)
	defer r.close()

	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintln(opts.Err, render.Failure(fmt.Errorf("unexpected failure: %v", rec)))
			code = 1
		}
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(opts.Err, render.Failure(errors.New(userMessage(err))))
		return 1
	}
	return 0
}

// start loads configuration and the stored session. Commands that talk to
// the backend call it first.
func (r *runner) start(cmd *cobra.Command) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if r.logLevel != "" {
		level = r.logLevel
	}
	logging.SetupWriter(r.opts.Err, level, cfg.Logging.Format)

	app, err := NewApp(cfg, r.opts.Version, r.opts.Out, r.opts.Err)
	if err != nil {
		return nil, err
	}
	if err := app.Start(cmd.Context()); err != nil {
		app.Close()
		return nil, err
	}
	r.app = app
	return app, nil
}

func (r *runner) close() {
	if r.app != nil {
		r.app.Close()
	}
}

func (r *runner) println(a ...any) {
	fmt.Fprintln(r.opts.Out, a...)
}

// userMessage is the status text shown for a failed command.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials) && err.Error() == apiclient.FallbackMessage:
		return "Invalid email or password."
	case errors.Is(err, errors.ErrNoSession),
		errors.Is(err, errors.ErrUnauthorized) && err.Error() == apiclient.FallbackMessage:
		return msgSignIn
	case errors.Is(err, errors.ErrForbidden) && err.Error() == apiclient.FallbackMessage:
		return "Administrator access required."
	case errors.Is(err, errors.ErrTransport):
		return "Could not reach CityPulse. Check your connection and try again."
	default:
		return err.Error()
	}
}
