package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/citypulse/auth"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/render"
	"github.com/jrsteele09/citypulse/server"
	"github.com/jrsteele09/citypulse/token"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shutdownTimeout = 5 * time.Second

func (r *runner) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = r.readSecret("Password: "); err != nil {
					return err
				}
			}
			if err := app.Identity.LoginWithEmail(cmd.Context(), email, password); err != nil {
				return err
			}
			r.println(render.Done("Signed in as " + app.Identity.State().User.DisplayName()))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func (r *runner) registerCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = r.readSecret("Password: "); err != nil {
					return err
				}
			}
			if err := app.Identity.RegisterWithEmail(cmd.Context(), username, email, password); err != nil {
				return err
			}
			r.println(render.Done("Welcome to CityPulse, " + app.Identity.State().User.DisplayName()))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func (r *runner) loginAuth0Cmd() *cobra.Command {
	var (
		connection string
		signup     bool
		noBrowser  bool
	)
	cmd := &cobra.Command{
		Use:   "login-auth0",
		Short: "Sign in through Auth0 in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			if err := app.Config.RequireAuth0(); err != nil {
				return err
			}

			hint := auth.ScreenHintLogin
			if signup {
				hint = auth.ScreenHintSignup
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), r.opts.LoginTimeout)
			defer cancel()

			flow := auth.NewFlow(app.Identity.ExternalLogin())
			srv, err := server.New(app.Config.Auth0.CallbackURL, flow, server.WithColour(app.Config.Logging.Format != "json"))
			if err != nil {
				return err
			}
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer shutdown(srv)

			authURL, err := flow.Begin(auth.AuthorizeOptions{Connection: connection, ScreenHint: hint})
			if err != nil {
				return err
			}

			r.println(render.Muted.Render("Open this link to continue signing in:"))
			r.println(authURL)
			if !noBrowser {
				if err := r.opts.OpenBrowser(authURL); err != nil {
					log.Warn().Err(err).Msg("could not open a browser, open the link manually")
				}
			}

			user, err := srv.Wait(ctx)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return errors.New("Timed out waiting for the sign-in to finish.")
				}
				return err
			}
			r.println(render.Done("Signed in as " + user.DisplayName()))
			return nil
		},
	}
	cmd.Flags().StringVar(&connection, "connection", "", "Auth0 connection to use, e.g. google-oauth2")
	cmd.Flags().BoolVar(&signup, "signup", false, "Open the sign-up page instead of sign-in")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the link without opening a browser")
	return cmd
}

func shutdown(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("callback server did not shut down cleanly")
	}
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			if err := app.Identity.Logout(); err != nil {
				return err
			}
			r.println(render.Done("Signed out"))
			return nil
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			state := app.Identity.State()
			if !state.Authenticated {
				return errors.ErrNoSession
			}
			r.println(render.Identity(state))
			return nil
		},
	}
}

func (r *runner) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and who it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}

			r.println(render.Header.Render("Session"))
			session, ok := app.Sessions.Session()
			if !ok {
				r.println(render.Muted.Render("No stored session."))
			} else {
				r.println(fmt.Sprintf("%s%s", render.DetailKey.Render("Expires"), session.ExpiresAt.Local().Format(time.RFC1123)))
				if claims, err := token.Inspect(session.Token); err == nil {
					if claims.Subject != "" {
						r.println(render.DetailKey.Render("Subject") + claims.Subject)
					}
					if claims.Role != "" {
						r.println(render.DetailKey.Render("Role") + claims.Role)
					}
					if !claims.IssuedAt.IsZero() {
						r.println(render.DetailKey.Render("Issued") + claims.IssuedAt.Local().Format(time.RFC1123))
					}
				}
			}
			r.println("")
			r.println(render.Header.Render("Account"))
			r.println(render.Identity(app.Identity.State()))
			return nil
		},
	}
}

// readSecret reads one line from the command's input.
// readSecret prompts on stderr. A terminal reads without echo; piped input
// is read a line at a time.
func (r *runner) readSecret(prompt string) (string, error) {
	fmt.Fprint(r.opts.Err, prompt)
	if f, ok := r.opts.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.opts.Err)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(r.opts.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
