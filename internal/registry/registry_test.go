package registry

import (
	"testing"

	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/storage"
)

func multiConfig() *config.Config {
	return &config.Config{
		Controllers: []config.ControllerProfile{
			{ID: "office", Name: "Office", URL: "https://a:8443", Username: "u1", Password: "p1"},
			{ID: "home", Name: "Home", URL: "https://b:8443", Username: "u2", Password: "p2"},
		},
	}
}

func TestResolveExplicitSelectorSwitches(t *testing.T) {
	r := New(multiConfig())

	state := &storage.SessionState{}
	state.SetController("office", storage.Controller{Name: "Office"})
	state.Cookie = "unifises=old"
	state.SiteID = "default"

	if err := r.Resolve(state, "home", Overrides{}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if state.ControllerID != "home" || state.Controller.Name != "Home" {
		t.Errorf("Expected switch to home, got %q %+v", state.ControllerID, state.Controller)
	}
	if state.Cookie != "" || state.SiteID != "" {
		t.Errorf("Switch must cascade-clear cached fields: cookie=%q site=%q", state.Cookie, state.SiteID)
	}
}

func TestResolveSelectorWithoutRegistry(t *testing.T) {
	r := New(&config.Config{
		Controller: config.ControllerProfile{Name: "Only", URL: "https://a:8443"},
	})

	err := r.Resolve(&storage.SessionState{}, "office", Overrides{})
	if err != ErrNoRegistry {
		t.Fatalf("Expected ErrNoRegistry, got %v", err)
	}
}

func TestResolveUnknownSelector(t *testing.T) {
	r := New(multiConfig())

	err := r.Resolve(&storage.SessionState{}, "warehouse", Overrides{})
	if err != ErrNoRegistry {
		t.Fatalf("Expected ErrNoRegistry for unknown id, got %v", err)
	}
}

func TestResolveRemembersSessionProfile(t *testing.T) {
	r := New(multiConfig())

	state := &storage.SessionState{}
	state.SetController("office", storage.Controller{Name: "Office", Username: "u1"})

	if err := r.Resolve(state, "", Overrides{}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if state.ControllerID != "office" || state.Controller.Name != "Office" {
		t.Errorf("Remembered profile lost: %q %+v", state.ControllerID, state.Controller)
	}
}

func TestResolveImplicitSingleProfile(t *testing.T) {
	r := New(&config.Config{
		Controller: config.ControllerProfile{URL: "https://a:8443", Username: "viewer"},
	})

	state := &storage.SessionState{}
	if err := r.Resolve(state, "", Overrides{}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if state.Controller == nil || state.Controller.URL != "https://a:8443" {
		t.Fatalf("Implicit profile not loaded: %+v", state.Controller)
	}
	if state.Controller.Name != "Controller" {
		t.Errorf("Expected default display name, got %q", state.Controller.Name)
	}
	if state.ControllerID != "" {
		t.Errorf("Single mode must not set a controller id, got %q", state.ControllerID)
	}
}

func TestResolveNoSelectionWithRegistry(t *testing.T) {
	r := New(multiConfig())

	state := &storage.SessionState{}
	if err := r.Resolve(state, "", Overrides{}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if state.Controller != nil {
		t.Errorf("Expected no active profile until one is picked, got %+v", state.Controller)
	}
}

func TestOverridesApplyToCurrentProfileOnly(t *testing.T) {
	r := New(multiConfig())

	state := &storage.SessionState{}
	if err := r.Resolve(state, "office", Overrides{Password: "better", URL: ""}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if state.Controller.Password != "better" {
		t.Errorf("Override not applied: %q", state.Controller.Password)
	}
	if state.Controller.Username != "u1" || state.Controller.URL != "https://a:8443" {
		t.Errorf("Empty override fields must not clear stored values: %+v", state.Controller)
	}

	// The configured registry itself is untouched
	if r.profiles["office"].Password != "p1" {
		t.Errorf("Override leaked into the configured registry: %q", r.profiles["office"].Password)
	}
}
