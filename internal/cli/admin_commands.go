package cli

import (
	"fmt"

	"github.com/jrsteele09/citypulse/admin"
	"github.com/jrsteele09/citypulse/complaints"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/render"
	"github.com/spf13/cobra"
)

func (r *runner) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Triage complaints (administrators only)",
	}
	cmd.AddCommand(r.adminListCmd(), r.adminUpdateCmd(), r.adminStatsCmd())
	return cmd
}

// startAdmin is start plus the administrator gate. The backend enforces the
// same rule; the gate saves a round trip and gives a clearer message.
func (r *runner) startAdmin(cmd *cobra.Command) (*App, error) {
	app, err := r.start(cmd)
	if err != nil {
		return nil, err
	}
	state := app.Identity.State()
	if !state.Authenticated {
		return nil, errors.ErrNoSession
	}
	if !state.Admin {
		return nil, errors.New("Administrator access required.")
	}
	return app, nil
}

func (r *runner) adminListCmd() *cobra.Command {
	var f admin.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.startAdmin(cmd)
			if err != nil {
				return err
			}
			page, err := app.Admin.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			r.println(render.ComplaintList(page))
			return nil
		},
	}
	filterFlags(cmd, &f, "status")
	return cmd
}

// filterFlags binds the list filter. statusFlag names the status filter flag
// since update already uses --status for the new status.
func filterFlags(cmd *cobra.Command, f *admin.Filter, statusFlag string) {
	fl := cmd.Flags()
	fl.StringVar(&f.Status, statusFlag, admin.FilterAll, "Status filter or 'all'")
	fl.StringVar(&f.Category, "category", admin.FilterAll, "Category filter or 'all'")
	fl.StringVar(&f.Severity, "severity", admin.FilterAll, "Severity filter or 'all'")
	fl.BoolVar(&f.Preview, "preview", false, fmt.Sprintf("Only the latest %d complaints", admin.PreviewSize))
	fl.IntVar(&f.Size, "size", 0, "Page size, overrides --preview")
}

func (r *runner) adminUpdateCmd() *cobra.Command {
	var (
		status, notes string
		f             admin.Filter
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a complaint's status and reload the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.startAdmin(cmd)
			if err != nil {
				return err
			}
			id, err := complaints.ParseID(args[0])
			if err != nil {
				return err
			}
			next, err := complaints.ParseStatus(status)
			if err != nil {
				return err
			}
			updated, err := app.Admin.UpdateStatus(cmd.Context(), id, next, notes)
			if err != nil {
				return err
			}
			r.println(render.Done(fmt.Sprintf("Complaint #%d is now %s", updated.ID, complaints.DisplayStatus(updated.Status))))

			page, err := app.Admin.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			r.println(render.ComplaintList(page))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status: submitted, in_progress, resolved, rejected")
	cmd.Flags().StringVar(&notes, "notes", "", "Note for the reporter (max 500 characters)")
	filterFlags(cmd, &f, "filter-status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func (r *runner) adminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count complaints by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.startAdmin(cmd)
			if err != nil {
				return err
			}
			stats, err := app.Admin.Stats(cmd.Context())
			if err != nil {
				return err
			}
			r.println(render.Stats(stats))
			return nil
		},
	}
}
