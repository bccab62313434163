package cli

import (
	"fmt"
	"os"

	"github.com/jrsteele09/citypulse/complaints"
	"github.com/jrsteele09/citypulse/geocode"
	"github.com/jrsteele09/citypulse/render"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type submitFlags struct {
	category     string
	severity     string
	title        string
	description  string
	contactName  string
	contactPhone string
	contactEmail string
	address      string
	lat          float64
	lng          float64
	image        string
	lookup       bool
}

func (r *runner) submitCmd() *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Report a new complaint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}

			draft, err := f.draft(cmd)
			if err != nil {
				return err
			}
			defer draft.Discard()

			if f.lookup {
				// No lookup for a draft the backend would reject.
				if err := draft.Validate(0); err != nil {
					return err
				}
				if err := app.Config.RequireMaps(); err != nil {
					return err
				}
				address, err := app.Geocoder.Reverse(cmd.Context(), *draft.Location)
				if err != nil {
					return err
				}
				draft.Address = address
				r.println(render.Muted.Render("Address: " + address))
			}

			created, err := app.Complaints.Submit(cmd.Context(), draft)
			if err != nil {
				return err
			}
			r.println(render.Done(fmt.Sprintf("Complaint #%d submitted. Track it with 'citypulse track %d'.", created.ID, created.ID)))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.category, "category", "", "Category: pothole, water, garbage, streetlight, drainage, park, noise, other")
	fl.StringVar(&f.severity, "severity", "", "Severity: low, medium, high, urgent")
	fl.StringVar(&f.title, "title", "", "Short title")
	fl.StringVar(&f.description, "description", "", "What is wrong")
	fl.StringVar(&f.contactName, "name", "", "Contact name")
	fl.StringVar(&f.contactPhone, "phone", "", "Contact phone")
	fl.StringVar(&f.contactEmail, "email", "", "Contact email")
	fl.StringVar(&f.address, "address", "", "Street address")
	fl.Float64Var(&f.lat, "lat", 0, "Latitude of the problem")
	fl.Float64Var(&f.lng, "lng", 0, "Longitude of the problem")
	fl.StringVar(&f.image, "image", "", "Path to a photo (max 10 MB)")
	fl.BoolVar(&f.lookup, "use-location-address", false, "Fill the address from the coordinates")
	return cmd
}

// draft builds a complaint draft from the flags. Unparseable enums are left
// unset so validation reports them with its own wording.
func (f *submitFlags) draft(cmd *cobra.Command) (*complaints.Draft, error) {
	d := &complaints.Draft{
		Title:        f.title,
		Description:  f.description,
		ContactName:  f.contactName,
		ContactPhone: f.contactPhone,
		ContactEmail: f.contactEmail,
		Address:      f.address,
	}
	if category, err := complaints.ParseCategory(f.category); err == nil {
		d.Category = category
	}
	if severity, err := complaints.ParseSeverity(f.severity); err == nil {
		d.Severity = severity
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		d.Location = &geocode.Location{Lat: f.lat, Lng: f.lng}
	}
	if f.image != "" {
		img, err := complaints.OpenImage(f.image)
		if err != nil {
			return nil, err
		}
		d.AttachImage(img)
	}
	return d, nil
}

func (r *runner) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <id>",
		Short: "Show a complaint's status and timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			c, err := app.Complaints.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.println(render.Complaint(c))
			return nil
		},
	}
}

func (r *runner) mineCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the complaints you reported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			page, err := app.Complaints.ListMine(cmd.Context(), size)
			if err != nil {
				return err
			}
			r.println(render.ComplaintList(page))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", complaints.DefaultListSize, "Maximum number of complaints")
	return cmd
}

func (r *runner) imageCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "image <id>",
		Short: "Download a complaint's photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			id, err := complaints.ParseID(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("complaint-%d-image", id)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			contentType, err := app.Complaints.Image(cmd.Context(), id, file)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				if rmErr := os.Remove(output); rmErr != nil {
					log.Warn().Err(rmErr).Str("file", output).Msg("could not remove partial download")
				}
				return err
			}
			r.println(render.Done(fmt.Sprintf("Saved %s (%s)", output, contentType)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write")
	return cmd
}

func (r *runner) geocodeCmd() *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Look up the address of a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.start(cmd)
			if err != nil {
				return err
			}
			if err := app.Config.RequireMaps(); err != nil {
				return err
			}
			loc := geocode.Location{Lat: lat, Lng: lng}
			address, err := app.Geocoder.Reverse(cmd.Context(), loc)
			if err != nil {
				return err
			}
			r.println(address)
			r.println(render.Muted.Render(geocode.MapsLink(loc)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
