package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifistats_requests_total",
			Help: "Total browse requests processed",
		},
		[]string{"action"},
	)

	// Controller facade metrics
	ControllerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifistats_controller_calls_total",
			Help: "Total controller API calls issued",
		},
		[]string{"call", "outcome"},
	)

	ControllerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unifistats_controller_call_duration_seconds",
			Help:    "Controller API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unifistats_login_failures_total",
			Help: "Total controller login failures",
		},
	)

	SessionResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unifistats_session_resets_total",
			Help: "Total explicit session resets",
		},
	)

	ObjectsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifistats_objects_fetched_total",
			Help: "Total objects returned by data-collection calls",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		ControllerCalls,
		ControllerCallDuration,
		LoginFailures,
		SessionResets,
		ObjectsFetched,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
