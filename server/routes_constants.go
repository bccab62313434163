package server

// Route path constants
const (
	// RouteCallback is used when the configured redirect URI has no path.
	RouteCallback = "/callback"

	// RouteHealth lets the CLI check the listener is up before opening a browser.
	RouteHealth = "/healthz"
)
