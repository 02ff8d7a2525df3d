package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/ppops/unifistats/internal/browser"
	"github.com/ppops/unifistats/internal/registry"
	"github.com/ppops/unifistats/internal/usage"
)

const sessionCookie = "unifistats_session"

type pageData struct {
	View    *browser.View
	Actions []string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleBrowse is the single page endpoint. Every selection arrives as
// a query or form parameter; reset_session=true wipes the session and
// redirects to the bare path so no stale parameters survive the reset.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	key := s.sessionKey(w, r)

	if r.Form.Get("reset_session") == "true" {
		if err := s.service.Reset(r.Context(), key); err != nil {
			s.logger.Error().Err(err).Msg("Session reset failed")
			http.Error(w, "Session reset failed", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
		return
	}

	req := browser.Request{
		ControllerID: r.Form.Get("controller_id"),
		SiteID:       r.Form.Get("site_id"),
		SiteName:     r.Form.Get("site_name"),
		Action:       r.Form.Get("action"),
		OutputFormat: r.Form.Get("output_format"),
		Theme:        r.Form.Get("theme"),
		Login: registry.Overrides{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
			URL:      r.PostForm.Get("controller_url"),
		},
		Usage: usage.RangeFields{
			FromDay:   r.Form.Get("from_d"),
			FromMonth: r.Form.Get("from_m"),
			FromYear:  r.Form.Get("from_y"),
			ToDay:     r.Form.Get("to_d"),
			ToMonth:   r.Form.Get("to_m"),
			ToYear:    r.Form.Get("to_y"),
			Days:      r.Form.Get("days"),
		},
	}

	view, err := s.service.Browse(r.Context(), key, req)
	if err != nil {
		// An unresolvable controller selector means the remembered state
		// cannot be trusted; force a reset.
		if errors.Is(err, registry.ErrNoRegistry) {
			http.Redirect(w, r, r.URL.Path+"?reset_session=true", http.StatusFound)
			return
		}
		s.logger.Error().Err(err).Msg("Browse failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{View: view, Actions: browser.ActionIDs()}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error().Err(err).Msg("Template rendering failed")
	}
}

// sessionKey returns the caller's session key, issuing a fresh cookie
// when none is present.
func (s *Server) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		s.logger.Error().Err(err).Msg("Session key generation failed")
		return "fallback"
	}
	key := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}
