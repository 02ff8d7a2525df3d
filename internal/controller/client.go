package controller

import (
	"context"
	"errors"
	"time"

	"github.com/ppops/unifistats/internal/storage"
)

// ErrAuthFailed is returned when the controller rejects the login
// credentials.
var ErrAuthFailed = errors.New("controller: authentication failed")

// Record is one entry of a controller data collection.
type Record = map[string]any

// Endpoint describes a single controller API call. Paths are relative
// to /api/s/{site}/ unless SiteLess, in which case they sit directly
// under /api/.
type Endpoint struct {
	Method   string
	Path     string
	Body     map[string]any
	SiteLess bool
	// Window, when set, adds millisecond start/end body attributes
	// covering the trailing window ending now. Interval stat endpoints
	// reject requests without an explicit range.
	Window time.Duration
}

// Client is the facade towards one UniFi controller. Exactly one
// implementation talks HTTP; tests substitute fakes.
type Client interface {
	// Login authenticates and remembers the auth cookie on success.
	Login(ctx context.Context) error
	// Cookie returns the current auth cookie, empty when not logged in.
	Cookie() string
	// SetCookie primes the client with a previously cached cookie.
	SetCookie(cookie string)
	// ListSites returns the sites managed by the controller.
	ListSites(ctx context.Context) ([]storage.Site, error)
	// SysInfo returns the system information collection for a site.
	SysInfo(ctx context.Context, site string) ([]Record, error)
	// Fetch performs one data-collection call scoped to a site.
	Fetch(ctx context.Context, site string, ep Endpoint) ([]Record, error)
}

// Dialer creates a client for a resolved controller profile. The
// browse service uses it so tests can inject fakes.
type Dialer func(profile storage.Controller) Client

// DetectVersion extracts the controller software version from a sysinfo
// collection, or returns the undetected sentinel.
func DetectVersion(records []Record) string {
	if len(records) > 0 {
		if v, ok := records[0]["version"].(string); ok && v != "" {
			return v
		}
	}
	return storage.VersionUndetected
}
