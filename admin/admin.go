package admin

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/citypulse/complaints"
	"github.com/jrsteele09/citypulse/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	adminComplaintsPath = "/admin/complaints"

	PreviewSize   = 3
	FullSize      = 50
	StatsPageSize = 1000

	MaxNotesLength = 500

	// FilterAll disables a filter.
	FilterAll = "all"
)

// API is the subset of the API client the admin service calls.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Filter narrows the admin listing. Empty or "all" values are ignored.
type Filter struct {
	Status   string
	Category string
	Severity string
	// Preview lists PreviewSize items instead of FullSize. Size overrides both.
	Preview bool
	Size    int
}

// StatusUpdate is the body of PUT /admin/complaints/{id}/status. Blank notes
// are sent as null.
type StatusUpdate struct {
	Status complaints.Status `json:"status"`
	Notes  *string           `json:"notes"`
}

// Stats counts complaints by status.
type Stats struct {
	Total      int64
	Submitted  int
	InProgress int
	Resolved   int
	Rejected   int
}

// Service wraps the admin complaint endpoints. Callers gate it on the
// signed-in user being an administrator; the backend enforces it again.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Query renders the filter as the listing's query string.
func (f Filter) Query() (url.Values, error) {
	q := url.Values{}
	if active(f.Status) {
		s, err := complaints.ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		q.Set("status", string(s))
	}
	if active(f.Category) {
		c, err := complaints.ParseCategory(f.Category)
		if err != nil {
			return nil, err
		}
		q.Set("category", string(c))
	}
	if active(f.Severity) {
		s, err := complaints.ParseSeverity(f.Severity)
		if err != nil {
			return nil, err
		}
		q.Set("severity", string(s))
	}

	size := FullSize
	if f.Preview {
		size = PreviewSize
	}
	if f.Size > 0 {
		size = f.Size
	}
	q.Set("size", strconv.Itoa(size))
	return q, nil
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, FilterAll)
}

func (s *Service) List(ctx context.Context, f Filter) (*complaints.Page, error) {
	q, err := f.Query()
	if err != nil {
		return nil, err
	}

	var page complaints.Page
	if err := s.api.Get(ctx, adminComplaintsPath+"?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateStatus moves a complaint to status with optional notes for the
// resident.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status complaints.Status, notes string) (*complaints.Complaint, error) {
	if id < 1 {
		return nil, &complaints.ValidationError{Field: "id", Message: "Invalid complaint ID. Please enter a numeric ID."}
	}
	if !status.Valid() {
		return nil, &complaints.ValidationError{Field: "status", Message: "Status is required"}
	}
	body := StatusUpdate{Status: status, Notes: utils.NonBlank(notes)}
	if body.Notes != nil && utf8.RuneCountInString(*body.Notes) > MaxNotesLength {
		return nil, &complaints.ValidationError{Field: "notes", Message: "Notes must be 500 characters or less"}
	}

	var updated complaints.Complaint
	path := adminComplaintsPath + "/" + strconv.FormatInt(id, 10) + "/status"
	if err := s.api.Put(ctx, path, body, &updated); err != nil {
		return nil, err
	}

	log.Info().Int64("id", id).Str("status", string(status)).Msg("complaint status updated")
	return &updated, nil
}

// Stats summarises up to StatsPageSize complaints. Total prefers the
// backend's count over the page length.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	page, err := s.List(ctx, Filter{Size: StatsPageSize})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: page.TotalElements}
	if stats.Total <= 0 {
		stats.Total = int64(len(page.Content))
	}
	for _, c := range page.Content {
		switch c.Status {
		case complaints.StatusSubmitted:
			stats.Submitted++
		case complaints.StatusInProgress:
			stats.InProgress++
		case complaints.StatusResolved:
			stats.Resolved++
		case complaints.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
