package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/storage"
)

func setupTestStore(t *testing.T, idleTimeout time.Duration) *Store {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Host:         mr.Addr(), // full "host:port" address
		Port:         0,         // not used when host contains port
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg, idleTimeout)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSessionStore_FetchEmpty(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	state, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if state.ControllerID != "" || state.Cookie != "" || state.Sites != nil {
		t.Errorf("Expected fresh empty state, got %+v", state)
	}
	if state.LastActivity.IsZero() {
		t.Error("Expected last activity to be stamped")
	}
}

func TestSessionStore_SaveFetchRoundtrip(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	state := &storage.SessionState{
		ControllerID: "office",
		Controller: &storage.Controller{
			Name:     "Office",
			URL:      "https://unifi.example.com:8443",
			Username: "viewer",
			Password: "secret",
			Insecure: true,
		},
		SiteID:       "default",
		SiteName:     "Default",
		Action:       "stat_daily_site",
		OutputFormat: "json",
		Theme:        "darkly",
		Sites: []storage.Site{
			{Name: "default", Desc: "Default"},
			{Name: "a1b2c3", Desc: "Branch"},
		},
		Version:      "5.12.35",
		Cookie:       "unifises=abc123",
		LastActivity: time.Now(),
	}

	if err := store.Save(ctx, "user-1", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got.ControllerID != "office" {
		t.Errorf("Expected controller id office, got %q", got.ControllerID)
	}
	if got.Controller == nil || got.Controller.Username != "viewer" || !got.Controller.Insecure {
		t.Errorf("Controller profile not preserved: %+v", got.Controller)
	}
	if got.SiteID != "default" || got.SiteName != "Default" {
		t.Errorf("Site selection not preserved: %q %q", got.SiteID, got.SiteName)
	}
	if got.Action != "stat_daily_site" || got.OutputFormat != "json" || got.Theme != "darkly" {
		t.Errorf("Selection fields not preserved: %+v", got)
	}
	if len(got.Sites) != 2 || got.Sites[1].Desc != "Branch" {
		t.Errorf("Cached site list not preserved: %+v", got.Sites)
	}
	if got.Version != "5.12.35" || got.Cookie != "unifises=abc123" {
		t.Errorf("Cached version/cookie not preserved: %q %q", got.Version, got.Cookie)
	}
}

func TestSessionStore_IdleExpiry(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	state := &storage.SessionState{
		ControllerID: "office",
		Cookie:       "unifises=abc123",
		LastActivity: base,
	}
	if err := store.Save(ctx, "user-1", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Within the idle window the record survives
	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	got, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.Cookie != "unifises=abc123" {
		t.Errorf("Expected cookie to survive within idle window, got %q", got.Cookie)
	}

	// The previous fetch re-stamped activity at +30m; jump past the
	// timeout measured from that stamp and the whole record is wiped
	store.now = func() time.Time { return base.Add(30*time.Minute + 61*time.Minute) }
	got, err = store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.Cookie != "" || got.ControllerID != "" {
		t.Errorf("Expected wiped state after idle expiry, got %+v", got)
	}
}

func TestSessionStore_Reset(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	state := &storage.SessionState{
		ControllerID: "office",
		Cookie:       "unifises=abc123",
		LastActivity: time.Now(),
	}
	if err := store.Save(ctx, "user-1", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Reset(ctx, "user-1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	got, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.Cookie != "" || got.ControllerID != "" {
		t.Errorf("Expected empty state after reset, got %+v", got)
	}
}

func TestSessionStore_KeysAreScoped(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "user-1", &storage.SessionState{
		ControllerID: "office",
		LastActivity: time.Now(),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Fetch(ctx, "user-2")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.ControllerID != "" {
		t.Errorf("Session state leaked across keys: %+v", got)
	}
}
