package complaints

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jrsteele09/citypulse/geocode"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
)

// Status is where a complaint is in its lifecycle.
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
)

// Statuses in workflow order.
var Statuses = []Status{StatusSubmitted, StatusInProgress, StatusResolved, StatusRejected}

// Severity is how urgent the reporter considers the issue.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeverityUrgent Severity = "URGENT"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityUrgent}

// Category routes the complaint to a city team.
type Category string

const (
	CategoryPothole     Category = "POTHOLE"
	CategoryWater       Category = "WATER"
	CategoryGarbage     Category = "GARBAGE"
	CategoryStreetlight Category = "STREETLIGHT"
	CategoryDrainage    Category = "DRAINAGE"
	CategoryPark        Category = "PARK"
	CategoryNoise       Category = "NOISE"
	CategoryOther       Category = "OTHER"
)

var Categories = []Category{
	CategoryPothole, CategoryWater, CategoryGarbage, CategoryStreetlight,
	CategoryDrainage, CategoryPark, CategoryNoise, CategoryOther,
}

// Location is the pin the reporter dropped.
type Location = geocode.Location

func ParseStatus(s string) (Status, error) {
	return parseEnum(s, Statuses, "status")
}

func ParseSeverity(s string) (Severity, error) {
	return parseEnum(s, Severities, "severity")
}

func ParseCategory(s string) (Category, error) {
	return parseEnum(s, Categories, "category")
}

// parseEnum matches s case-insensitively, so "pothole" and "in progress"
// are accepted.
func parseEnum[T ~string](s string, values []T, kind string) (T, error) {
	normalised := strings.ToUpper(strings.TrimSpace(s))
	normalised = strings.ReplaceAll(normalised, " ", "_")
	normalised = strings.ReplaceAll(normalised, "-", "_")
	for _, v := range values {
		if string(v) == normalised {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown %s %q", errors.ErrValidation, kind, s)
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

func (s Severity) Valid() bool {
	return slices.Contains(Severities, s)
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Complaint is a complaint as returned by the backend.
type Complaint struct {
	ID           int64           `json:"id"`
	Category     Category        `json:"category"`
	Severity     Severity        `json:"severity"`
	Status       Status          `json:"status"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ContactName  string          `json:"contactName"`
	ContactPhone string          `json:"contactPhone"`
	ContactEmail string          `json:"contactEmail"`
	Address      *string         `json:"address"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	StatusNotes  *string         `json:"statusNotes"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Reporter     *users.AuthUser `json:"reporter"`
}

// Location returns the complaint's coordinates when both are present.
func (c *Complaint) Location() (Location, bool) {
	if c == nil || c.Latitude == nil || c.Longitude == nil {
		return Location{}, false
	}
	return Location{Lat: *c.Latitude, Lng: *c.Longitude}, true
}

// Page is one page of a paged listing.
type Page struct {
	Content       []Complaint `json:"content"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Number        int         `json:"number"`
	Size          int         `json:"size"`
}
