package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppops/unifistats/internal/storage"
	"github.com/rs/zerolog"
)

func newTestController(t *testing.T, loginStatus int) (*httptest.Server, Client) {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if loginStatus != http.StatusOK {
			w.WriteHeader(loginStatus)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "unifises", Value: "abc123"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"rc": "ok"},
			"data": []any{},
		})
	})

	mux.HandleFunc("/api/self/sites", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"rc": "ok"},
			"data": []map[string]string{
				{"name": "default", "desc": "Default"},
				{"name": "a1b2c3", "desc": "Branch"},
			},
		})
	})

	mux.HandleFunc("/api/s/default/stat/sysinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"rc": "ok"},
			"data": []map[string]any{{"version": "5.12.35"}},
		})
	})

	mux.HandleFunc("/api/s/default/stat/sta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"rc": "ok"},
			"data": []map[string]any{{"mac": "aa:bb:cc:dd:ee:ff"}, {"mac": "11:22:33:44:55:66"}},
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := New(storage.Controller{
		URL:      ts.URL,
		Username: "viewer",
		Password: "secret",
	}, zerolog.Nop())

	return ts, client
}

func TestLoginStoresCookie(t *testing.T) {
	_, client := newTestController(t, http.StatusOK)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if client.Cookie() != "unifises=abc123" {
		t.Errorf("Expected cookie unifises=abc123, got %q", client.Cookie())
	}
}

func TestLoginAuthFailure(t *testing.T) {
	_, client := newTestController(t, http.StatusBadRequest)

	err := client.Login(context.Background())
	if err != ErrAuthFailed {
		t.Fatalf("Expected ErrAuthFailed, got %v", err)
	}
	if client.Cookie() != "" {
		t.Errorf("Expected no cookie after failed login, got %q", client.Cookie())
	}
}

func TestListSites(t *testing.T) {
	_, client := newTestController(t, http.StatusOK)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	sites, err := client.ListSites(context.Background())
	if err != nil {
		t.Fatalf("ListSites failed: %v", err)
	}
	if len(sites) != 2 || sites[0].Name != "default" || sites[1].Desc != "Branch" {
		t.Errorf("Unexpected site list: %+v", sites)
	}
}

func TestFetchWithCachedCookie(t *testing.T) {
	_, client := newTestController(t, http.StatusOK)

	// Prime with a previously cached cookie, no login call
	client.SetCookie("unifises=abc123")

	records, err := client.Fetch(context.Background(), "default", Endpoint{
		Method: http.MethodGet,
		Path:   "stat/sta",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestSysInfoVersionDetection(t *testing.T) {
	_, client := newTestController(t, http.StatusOK)
	client.SetCookie("unifises=abc123")

	info, err := client.SysInfo(context.Background(), "default")
	if err != nil {
		t.Fatalf("SysInfo failed: %v", err)
	}
	if v := DetectVersion(info); v != "5.12.35" {
		t.Errorf("Expected version 5.12.35, got %q", v)
	}
}

func TestDetectVersionSentinel(t *testing.T) {
	if v := DetectVersion(nil); v != storage.VersionUndetected {
		t.Errorf("Expected undetected sentinel for empty sysinfo, got %q", v)
	}
	if v := DetectVersion([]Record{{"hostname": "ctl"}}); v != storage.VersionUndetected {
		t.Errorf("Expected undetected sentinel without version field, got %q", v)
	}
}
