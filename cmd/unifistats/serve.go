package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ppops/unifistats/internal/browser"
	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/controller"
	"github.com/ppops/unifistats/internal/metrics"
	"github.com/ppops/unifistats/internal/registry"
	"github.com/ppops/unifistats/internal/storage"
	"github.com/ppops/unifistats/internal/storage/redis"
	"github.com/ppops/unifistats/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the UniFi Stats web server",
	Long:  `Start the UniFi Stats web server with its metrics endpoint.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting UniFi Stats")

	// Initialize session store
	store, err := redis.Open(cfg.Session.Redis, cfg.IdleTimeout())
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	logger.Info().
		Str("redis_host", cfg.Session.Redis.Host).
		Int("redis_port", cfg.Session.Redis.Port).
		Dur("idle_timeout", cfg.IdleTimeout()).
		Msg("Session store initialized")

	// Initialize controller registry
	reg := registry.New(cfg)
	if reg.Multi() {
		logger.Info().Int("profiles", len(reg.Profiles())).Msg("Controller registry initialized")
	} else {
		logger.Info().Str("url", cfg.Controller.URL).Msg("Single controller mode")
	}

	// Initialize browse service
	dial := func(profile storage.Controller) controller.Client {
		return controller.New(profile, logger)
	}
	service := browser.NewService(store, reg, dial, cfg, logger)

	// Initialize web server
	webServer := web.NewServer(web.Config{ListenAddr: cfg.Server.ListenAddr}, service, logger)
	if err := webServer.Start(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	// Initialize metrics server
	metricsServer := metrics.NewServer(cfg.Server.MetricsAddr, logger)
	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().Msg("UniFi Stats startup complete")
	logger.Info().Msgf("Web UI: http://%s/", cfg.Server.ListenAddr)
	logger.Info().Msgf("Metrics: http://%s/metrics", cfg.Server.MetricsAddr)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := webServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping web server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("UniFi Stats stopped")

	return nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
