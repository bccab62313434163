package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/citypulse/apiclient"
	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	mapsSearchURL   = "https://www.google.com/maps"

	statusOK = "OK"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders "lat,lng" with the shortest exact decimal form.
func (l Location) String() string {
	return formatCoord(l.Lat) + "," + formatCoord(l.Lng)
}

// Valid reports whether the coordinates lie on the globe.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// MapsLink returns a Google Maps URL centred on the location.
func MapsLink(l Location) string {
	return mapsSearchURL + "?q=" + l.String()
}

// Client reverse-geocodes coordinates with the Google Geocoding API.
type Client struct {
	apiKey   string
	endpoint string
	api      *apiclient.Client
}

type Option func(*Client)

// WithEndpoint points the client at another geocoding endpoint, for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithAPIClient replaces the HTTP client. It must not carry the backend's
// bearer token.
func WithAPIClient(api *apiclient.Client) Option {
	return func(c *Client) {
		c.api = api
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		// no token source: the backend session never leaves for a third party
		c.api = apiclient.New("", nil)
	}
	return c
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// Reverse returns the formatted address of the first result for l. A
// missing key fails before any request is made.
func (c *Client) Reverse(ctx context.Context, l Location) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: Google Maps API key missing. Please update your .env.", errors.ErrConfiguration)
	}
	if !l.Valid() {
		return "", fmt.Errorf("%w: coordinates out of range: %s", errors.ErrValidation, l)
	}

	query := url.Values{
		"latlng": {l.String()},
		"key":    {c.apiKey},
	}

	var resp geocodeResponse
	if err := c.api.Get(ctx, c.endpoint+"?"+query.Encode(), &resp); err != nil {
		return "", errors.Wrapf(err, "[geocode Reverse] %s", l)
	}

	if resp.Status != statusOK || len(resp.Results) == 0 || resp.Results[0].FormattedAddress == "" {
		log.Debug().Str("status", resp.Status).Str("error", resp.ErrorMessage).Msg("no address for location")
		return "", fmt.Errorf("%w: We could not determine the address from that pin. You can type it in manually.", errors.ErrNoAddress)
	}
	return resp.Results[0].FormattedAddress, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
