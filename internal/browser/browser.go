// Package browser implements the per-request selection and dispatch
// flow: resolve the active controller, walk the readiness gates, keep
// the session caches warm, and serve the selected data collection.
package browser

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/controller"
	"github.com/ppops/unifistats/internal/format"
	"github.com/ppops/unifistats/internal/metrics"
	"github.com/ppops/unifistats/internal/registry"
	"github.com/ppops/unifistats/internal/storage"
	"github.com/ppops/unifistats/internal/usage"
)

// DefaultTheme is applied when the session holds no theme choice.
const DefaultTheme = "bootstrap"

// Request carries the selection fields of one browse request. Empty
// fields leave the corresponding session value untouched.
type Request struct {
	ControllerID string
	SiteID       string
	SiteName     string
	Action       string
	OutputFormat string
	Theme        string

	Login registry.Overrides
	Usage usage.RangeFields
}

// Timing records how long the phases of a browse request took. Login
// covers authentication, Load covers the data-collection fetch.
type Timing struct {
	Login time.Duration
	Load  time.Duration
	Total time.Duration
}

// View is everything the page needs to render one browse request.
// Sites and Version are the values to display this request; on a login
// failure they carry placeholders while the session caches stay intact.
type View struct {
	State    *storage.SessionState
	Profiles []config.ControllerProfile

	PickController bool
	ShowLogin      bool
	Alert          string

	Sites   []storage.Site
	Version string

	ActionID  string
	Selection string

	Data        any
	Output      string
	ObjectCount int

	Report *usage.Report
	Timing Timing
}

// Service runs the browse flow against a session store, a controller
// registry and a controller facade.
type Service struct {
	store    storage.SessionStore
	registry *registry.Registry
	dial     controller.Dialer

	windowDays int
	loc        *time.Location
	logger     zerolog.Logger

	now func() time.Time
}

// NewService creates a browse service.
func NewService(store storage.SessionStore, reg *registry.Registry, dial controller.Dialer, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		registry:   reg,
		dial:       dial,
		windowDays: cfg.Usage.DefaultWindowDays,
		loc:        cfg.Location(),
		logger:     logger.With().Str("component", "browser").Logger(),
		now:        time.Now,
	}
}

// Reset wipes the session record for key.
func (s *Service) Reset(ctx context.Context, key string) error {
	metrics.SessionResets.Inc()
	return s.store.Reset(ctx, key)
}

// Browse runs one request through the selection flow. The session is
// always saved before returning, except when the controller selector
// cannot be resolved, in which case ErrNoRegistry is returned and the
// caller must force a session reset.
func (s *Service) Browse(ctx context.Context, key string, req Request) (*View, error) {
	start := s.now()

	state, err := s.store.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Resolve(state, req.ControllerID, req.Login); err != nil {
		return nil, err
	}

	s.applySelection(state, req)

	view := &View{
		State:    state,
		Profiles: s.registry.Profiles(),
		Version:  state.Version,
	}

	// Gate 1: with a registry configured, a controller must be picked.
	if s.registry.Multi() && state.Controller == nil {
		view.PickController = true
		view.Alert = "Please select a controller to continue"
		return s.finish(ctx, key, state, view, start)
	}

	// Gate 2: no cached cookie and incomplete credentials means the
	// login form must be shown.
	ctrl := state.Controller
	if state.Cookie == "" && (ctrl.URL == "" || ctrl.Username == "" || ctrl.Password == "") {
		view.ShowLogin = true
		view.Alert = "Please login to " + ctrl.Name
		return s.finish(ctx, key, state, view, start)
	}

	client := s.dial(*ctrl)
	client.SetCookie(state.Cookie)

	if state.Cookie == "" {
		err := s.observe("login", func() error { return client.Login(ctx) })
		view.Timing.Login = s.now().Sub(start)
		if err != nil {
			// Failure placeholders are rendered but never cached, so the
			// next request retries from scratch.
			metrics.LoginFailures.Inc()
			s.logger.Warn().Err(err).Str("controller", ctrl.Name).Msg("Controller login failed")
			view.ShowLogin = true
			view.Alert = "Login failed, please check the credentials for " + ctrl.Name
			view.Sites = nil
			view.Version = storage.VersionUndetected
			return s.finish(ctx, key, state, view, start)
		}
		state.Cookie = client.Cookie()
	}
	view.Timing.Login = s.now().Sub(start)

	if len(state.Sites) == 0 {
		sites, err := s.fetchSites(ctx, client)
		if err != nil || len(sites) == 0 {
			s.logger.Warn().Err(err).Str("controller", ctrl.Name).Msg("No sites available")
			view.Alert = "No sites available on controller " + ctrl.Name
		} else {
			state.Sites = sites
		}
	}
	view.Sites = sortedSites(state.Sites)

	if state.Version == "" || state.Version == storage.VersionUndetected {
		state.Version = s.detectVersion(ctx, client, state)
	}
	view.Version = state.Version

	if state.SiteID != "" {
		s.dispatch(ctx, client, state, req, view)
	}

	view.Output = format.Render(state.OutputFormat, view.Data)
	return s.finish(ctx, key, state, view, start)
}

// applySelection folds request fields over the remembered session
// values. Request fields win only when present.
func (s *Service) applySelection(state *storage.SessionState, req Request) {
	if req.SiteID != "" {
		state.SiteID = req.SiteID
		state.SiteName = req.SiteName
	}
	if req.Action != "" {
		state.Action = req.Action
	}
	if req.OutputFormat != "" {
		state.OutputFormat = req.OutputFormat
	}
	if state.OutputFormat == "" {
		state.OutputFormat = format.JSON
	}
	if req.Theme != "" {
		state.Theme = req.Theme
	}
	if state.Theme == "" {
		state.Theme = DefaultTheme
	}
}

// dispatch resolves the action and loads its data collection. Soft
// fetch failures alert without touching the session caches.
func (s *Service) dispatch(ctx context.Context, client controller.Client, state *storage.SessionState, req Request, view *View) {
	id, action := ResolveAction(state.Action)
	view.ActionID = id
	view.Selection = action.Label
	metrics.RequestsTotal.WithLabelValues(id).Inc()

	loadStart := s.now()
	defer func() { view.Timing.Load = s.now().Sub(loadStart) }()

	if action.FromCache {
		view.Data = view.Sites
		view.ObjectCount = len(view.Sites)
		return
	}

	var records []controller.Record
	err := s.observe("fetch", func() error {
		var err error
		records, err = client.Fetch(ctx, state.SiteID, action.Endpoint)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", id).Msg("Data fetch failed")
		view.Alert = "Failed to load " + action.Label
		return
	}

	view.Data = records
	view.ObjectCount = len(records)
	if len(records) > 0 {
		metrics.ObjectsFetched.WithLabelValues(id).Add(float64(len(records)))
	}

	if id == DefaultAction {
		filter := usage.ParseFilter(req.Usage, s.windowDays, s.loc)
		view.Report = usage.Build(records, filter, s.now(), s.loc)
	}
}

func (s *Service) fetchSites(ctx context.Context, client controller.Client) ([]storage.Site, error) {
	var sites []storage.Site
	err := s.observe("list_sites", func() error {
		var err error
		sites, err = client.ListSites(ctx)
		return err
	})
	return sites, err
}

// detectVersion probes sysinfo and caches the result. The undetected
// sentinel is cached too, so the probe is retried each request until a
// real version appears.
func (s *Service) detectVersion(ctx context.Context, client controller.Client, state *storage.SessionState) string {
	site := state.SiteID
	if site == "" {
		site = "default"
	}

	var info []controller.Record
	err := s.observe("sysinfo", func() error {
		var err error
		info, err = client.SysInfo(ctx, site)
		return err
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("Version detection failed")
		return storage.VersionUndetected
	}
	return controller.DetectVersion(info)
}

func (s *Service) finish(ctx context.Context, key string, state *storage.SessionState, view *View, start time.Time) (*View, error) {
	view.Timing.Total = s.now().Sub(start)
	if err := s.store.Save(ctx, key, state); err != nil {
		return nil, err
	}
	return view, nil
}

// observe wraps one controller call with metrics.
func (s *Service) observe(call string, fn func() error) error {
	start := s.now()
	err := fn()
	metrics.ControllerCallDuration.WithLabelValues(call).Observe(s.now().Sub(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, controller.ErrAuthFailed) {
			outcome = "auth_failed"
		}
	}
	metrics.ControllerCalls.WithLabelValues(call, outcome).Inc()
	return err
}

// sortedSites orders sites by description for display, leaving the
// cached order untouched.
func sortedSites(sites []storage.Site) []storage.Site {
	out := make([]storage.Site, len(sites))
	copy(out, sites)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Desc < out[j].Desc
	})
	return out
}
