package registry

import (
	"errors"

	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/storage"
)

// ErrNoRegistry is returned when an explicit controller selector is
// supplied but no registry of profiles is configured, or the selector
// does not name a configured profile. The selector cannot be honored
// safely; the caller must force a full session reset.
var ErrNoRegistry = errors.New("registry: controller selector cannot be resolved")

// Registry resolves which controller profile is active for a request.
type Registry struct {
	profiles map[string]config.ControllerProfile
	order    []config.ControllerProfile
	single   config.ControllerProfile
}

// Overrides carries login-form values. Only non-empty fields are
// applied, and only to the currently active profile's session copy.
type Overrides struct {
	Username string
	Password string
	URL      string
}

// New builds a registry from configuration. With an empty `controllers`
// list the single top-level `controller` section acts as the one
// implicit profile.
func New(cfg *config.Config) *Registry {
	r := &Registry{
		profiles: make(map[string]config.ControllerProfile, len(cfg.Controllers)),
		order:    cfg.Controllers,
		single:   cfg.Controller,
	}
	for _, p := range cfg.Controllers {
		r.profiles[p.ID] = p
	}
	return r
}

// Multi reports whether a registry of named profiles is configured.
func (r *Registry) Multi() bool {
	return len(r.order) > 0
}

// Profiles returns the configured profiles in configuration order, for
// the controller picker.
func (r *Registry) Profiles() []config.ControllerProfile {
	return r.order
}

// Resolve determines the active profile for this request: an explicit
// selector switches controllers (cascade-clearing the session caches),
// otherwise the remembered profile is kept, otherwise the implicit
// single profile is loaded. Login-form overrides are applied to the
// resolved profile afterwards and persist only in the session.
func (r *Registry) Resolve(state *storage.SessionState, selector string, ov Overrides) error {
	switch {
	case selector != "":
		profile, ok := r.profiles[selector]
		if !r.Multi() || !ok {
			return ErrNoRegistry
		}
		state.SetController(selector, toController(profile))

	case state.Controller == nil && !r.Multi():
		c := toController(r.single)
		state.Controller = &c
	}

	if state.Controller != nil {
		if ov.Username != "" {
			state.Controller.Username = ov.Username
		}
		if ov.Password != "" {
			state.Controller.Password = ov.Password
		}
		if ov.URL != "" {
			state.Controller.URL = ov.URL
		}
	}

	return nil
}

func toController(p config.ControllerProfile) storage.Controller {
	name := p.Name
	if name == "" {
		name = "Controller"
	}
	return storage.Controller{
		Name:     name,
		URL:      p.URL,
		Username: p.Username,
		Password: p.Password,
		Insecure: p.Insecure,
	}
}
