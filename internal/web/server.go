// Package web serves the browse UI: one page driven entirely by query
// and form parameters, with all state living in the session store.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ppops/unifistats/internal/browser"
)

//go:embed static
var staticFS embed.FS

// Config holds the web server configuration.
type Config struct {
	ListenAddr string
}

// Server is the browse UI HTTP server.
type Server struct {
	config    Config
	service   *browser.Service
	server    *http.Server
	router    *mux.Router
	templates *template.Template
	logger    zerolog.Logger
}

// NewServer creates the web server.
func NewServer(cfg Config, service *browser.Service, logger zerolog.Logger) *Server {
	router := mux.NewRouter()

	tmpl, err := template.ParseFS(staticFS, "static/templates/*.html")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse templates")
		tmpl = template.New("fallback")
	}

	s := &Server{
		config:    cfg,
		service:   service,
		router:    router,
		templates: tmpl,
		logger:    logger.With().Str("component", "web").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleBrowse).Methods("GET", "POST")

	staticSub, err := fs.Sub(staticFS, "static")
	if err == nil {
		s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	}
}

// Start starts the web server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Web server error")
		}
	}()

	return nil
}

// Stop gracefully stops the web server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping web server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
