package controller

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ppops/unifistats/internal/storage"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// unifiClient talks to a UniFi controller over HTTPS.
type unifiClient struct {
	rest     *resty.Client
	username string
	password string
	cookie   string
	logger   zerolog.Logger
}

// New creates a client for the given controller profile.
func New(profile storage.Controller, logger zerolog.Logger) Client {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(profile.URL), "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")

	if profile.Insecure {
		rest.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &unifiClient{
		rest:     rest,
		username: strings.TrimSpace(profile.Username),
		password: profile.Password,
		logger:   logger.With().Str("component", "controller").Logger(),
	}
}

// envelope is the controller's standard response wrapper.
type envelope struct {
	Meta struct {
		RC  string `json:"rc"`
		Msg string `json:"msg"`
	} `json:"meta"`
	Data []Record `json:"data"`
}

func (c *unifiClient) Login(ctx context.Context) error {
	var env envelope
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"username": c.username,
			"password": c.password,
		}).
		SetResult(&env).
		Post("/api/login")
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}

	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return ErrAuthFailed
	}
	if resp.IsError() {
		return fmt.Errorf("login: unexpected status %d", resp.StatusCode())
	}

	var parts []string
	for _, ck := range resp.Cookies() {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	if len(parts) == 0 {
		return ErrAuthFailed
	}
	c.cookie = strings.Join(parts, "; ")

	c.logger.Debug().Msg("Controller login succeeded")
	return nil
}

func (c *unifiClient) Cookie() string {
	return c.cookie
}

func (c *unifiClient) SetCookie(cookie string) {
	c.cookie = cookie
}

func (c *unifiClient) ListSites(ctx context.Context) ([]storage.Site, error) {
	var env struct {
		Meta struct {
			RC  string `json:"rc"`
			Msg string `json:"msg"`
		} `json:"meta"`
		Data []storage.Site `json:"data"`
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Cookie", c.cookie).
		SetResult(&env).
		Get("/api/self/sites")
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	if err := checkStatus(resp.StatusCode(), env.Meta.RC, env.Meta.Msg); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	return env.Data, nil
}

func (c *unifiClient) SysInfo(ctx context.Context, site string) ([]Record, error) {
	return c.Fetch(ctx, site, Endpoint{Method: http.MethodGet, Path: "stat/sysinfo"})
}

func (c *unifiClient) Fetch(ctx context.Context, site string, ep Endpoint) ([]Record, error) {
	path := "/api/s/" + url.PathEscape(site) + "/" + ep.Path
	if ep.SiteLess {
		path = "/api/" + ep.Path
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("Cookie", c.cookie)

	var env envelope
	req.SetResult(&env)

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	if method == http.MethodPost {
		req.SetBody(requestBody(ep, time.Now()))
	}

	started := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ep.Path, err)
	}

	c.logger.Debug().
		Str("path", ep.Path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(started)).
		Msg("Controller call completed")

	if err := checkStatus(resp.StatusCode(), env.Meta.RC, env.Meta.Msg); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ep.Path, err)
	}

	return env.Data, nil
}

// requestBody builds the POST body, adding the millisecond range
// attributes for windowed stat endpoints.
func requestBody(ep Endpoint, now time.Time) map[string]any {
	body := make(map[string]any, len(ep.Body)+2)
	for k, v := range ep.Body {
		body[k] = v
	}
	if ep.Window > 0 {
		end := now.UnixMilli()
		body["end"] = end
		body["start"] = end - ep.Window.Milliseconds()
	}
	return body
}

func checkStatus(status int, rc, msg string) error {
	if status == http.StatusUnauthorized || rc == "error" && msg == "api.err.LoginRequired" {
		return ErrAuthFailed
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("unexpected status %d", status)
	}
	if rc != "" && rc != "ok" {
		return fmt.Errorf("controller error: %s", msg)
	}
	return nil
}
