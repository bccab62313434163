package complaints

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	complaintsPath  = "/complaints"
	DefaultListSize = 100

	msgInvalidID = "Invalid complaint ID. Please enter a numeric ID."
)

// API is the subset of the API client the complaint service calls.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Download(ctx context.Context, path string, w io.Writer) (string, error)
}

// Service submits and looks up complaints for the signed-in resident.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Submit validates the draft and posts it as a multipart form. Nothing is
// sent when validation fails. On success the draft's image is released.
func (s *Service) Submit(ctx context.Context, d *Draft) (*Complaint, error) {
	if err := d.Validate(MaxImageBytes); err != nil {
		return nil, err
	}

	form, err := draftForm(d)
	if err != nil {
		return nil, err
	}

	var created Complaint
	if err := s.api.Post(ctx, complaintsPath, form, &created); err != nil {
		return nil, err
	}

	d.Discard()
	log.Info().Int64("id", created.ID).Str("category", string(d.Category)).Bool("image", form.HasFile("image")).Msg("complaint submitted")
	return &created, nil
}

func draftForm(d *Draft) (*apiclient.Multipart, error) {
	form := apiclient.NewMultipart().
		AddField("category", string(d.Category)).
		AddField("title", d.Title).
		AddField("description", d.Description).
		AddField("severity", string(d.Severity)).
		AddField("contactName", d.ContactName).
		AddField("contactPhone", d.ContactPhone).
		AddField("contactEmail", d.ContactEmail).
		AddField("address", d.Address).
		AddField("latitude", formatCoord(d.Location.Lat)).
		AddField("longitude", formatCoord(d.Location.Lng))

	if img := d.Image(); img != nil {
		r, err := img.reader()
		if err != nil {
			return nil, err
		}
		form.AddFile("image", img.Name, r)
	}
	return form, nil
}

// ParseID reads the leading integer of a complaint ID typed by a user.
// Text after the digits is ignored, so "12abc" is 12. Input that does not
// start with a number fails.
func ParseID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, &ValidationError{Field: "id", Message: msgInvalidID}
	}
	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "id", Message: msgInvalidID}
	}
	return id, nil
}

// Get looks up a complaint by a user-entered ID. A non-numeric ID fails
// without a request.
func (s *Service) Get(ctx context.Context, rawID string) (*Complaint, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var c Complaint
	if err := s.api.Get(ctx, complaintPath(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListMine returns the signed-in user's complaints. size <= 0 means
// DefaultListSize.
func (s *Service) ListMine(ctx context.Context, size int) (*Page, error) {
	if size <= 0 {
		size = DefaultListSize
	}

	var page Page
	if err := s.api.Get(ctx, fmt.Sprintf("%s?size=%d", complaintsPath, size), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Image streams a complaint's photo into w and returns its content type.
func (s *Service) Image(ctx context.Context, id int64, w io.Writer) (string, error) {
	if id < 1 {
		return "", &ValidationError{Field: "id", Message: msgInvalidID}
	}
	contentType, err := s.api.Download(ctx, complaintPath(id)+"/image", w)
	if err != nil {
		return "", errors.Wrapf(err, "[complaints Image] complaint %d", id)
	}
	return contentType, nil
}

func complaintPath(id int64) string {
	return complaintsPath + "/" + strconv.FormatInt(id, 10)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
