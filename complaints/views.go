package complaints

import (
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/citypulse/geocode"
)

const (
	submittedLabel       = "Complaint submitted"
	submittedDescription = "Thanks for reporting this issue. Our team has received your complaint."
	defaultStatusNote    = "City staff left an update on your complaint."
)

// Progress is the completion percentage shown for a status. Rejected
// complaints are finished too.
func Progress(s Status) int {
	switch s {
	case StatusSubmitted:
		return 33
	case StatusInProgress:
		return 67
	case StatusResolved, StatusRejected:
		return 100
	default:
		return 0
	}
}

// DisplayStatus turns IN_PROGRESS into "In progress".
func DisplayStatus(s Status) string {
	text := statusWords(s)
	if text == "" {
		return ""
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

func statusWords(s Status) string {
	return strings.ToLower(strings.Replace(string(s), "_", " ", 1))
}

// TimelineEntry is one row of a complaint's history.
type TimelineEntry struct {
	ID          string
	Status      Status
	Label       string
	Description string
	Timestamp   time.Time
}

// Timeline always starts with the submission. A second entry describes the
// latest status change when the complaint has moved on.
func Timeline(c *Complaint) []TimelineEntry {
	if c == nil {
		return nil
	}
	id := strconv.FormatInt(c.ID, 10)

	entries := []TimelineEntry{{
		ID:          id + "-submitted",
		Status:      StatusSubmitted,
		Label:       submittedLabel,
		Description: submittedDescription,
		Timestamp:   c.CreatedAt,
	}}

	if c.Status != StatusSubmitted {
		description := defaultStatusNote
		if c.StatusNotes != nil && *c.StatusNotes != "" {
			description = *c.StatusNotes
		}
		entries = append(entries, TimelineEntry{
			ID:          id + "-status",
			Status:      c.Status,
			Label:       "Status updated to " + statusWords(c.Status),
			Description: description,
			Timestamp:   c.UpdatedAt,
		})
	}
	return entries
}

// MapsLink links to the complaint's pin, when it has one.
func MapsLink(c *Complaint) (string, bool) {
	loc, ok := c.Location()
	if !ok {
		return "", false
	}
	return geocode.MapsLink(loc), true
}
