package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// VersionUndetected is cached when the controller version could not be
// determined. It is retried on every request until a real version is
// obtained, so a transient detection failure is never cached for good.
const VersionUndetected = "undetected"

// SessionStore persists per-user selection state between requests.
//
// Fetch applies the idle-expiry rule: every access stamps the
// last-activity time, and when the gap since the previous stamp exceeds
// the configured idle timeout the whole record is wiped before the
// request is served. This is a fail-open safety valve against stale
// cached credentials, not a hard limit on the user's clock.
type SessionStore interface {
	Fetch(ctx context.Context, key string) (*SessionState, error)
	Save(ctx context.Context, key string, state *SessionState) error
	Reset(ctx context.Context, key string) error
	Close() error
}

// Controller holds the credentials of the active controller profile as
// remembered in the session. Login-form overrides are applied here and
// never leak back into the configured registry.
type Controller struct {
	Name     string
	URL      string
	Username string
	Password string
	Insecure bool
}

// Site is one management-scoped subdivision exposed by the controller.
type Site struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// SessionState is the per-user record behind the browse page.
//
// The cached site list, detected version and auth cookie are only valid
// for the currently selected controller; SetController is the single
// mutation path for switching and cascade-clears all of them.
type SessionState struct {
	ControllerID string
	Controller   *Controller

	SiteID   string
	SiteName string

	Action       string
	OutputFormat string
	Theme        string

	Sites   []Site
	Version string
	Cookie  string

	LastActivity time.Time
}

// SetController activates a controller profile and atomically clears
// every field scoped to the previous one: selected site, cached site
// list, selected action, detected version and auth cookie. Skipping any
// of these would leak data across controllers.
func (s *SessionState) SetController(id string, c Controller) {
	s.ControllerID = id
	s.Controller = &c

	s.SiteID = ""
	s.SiteName = ""
	s.Sites = nil
	s.Action = ""
	s.Version = ""
	s.Cookie = ""
}
