package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server      ServerConfig        `mapstructure:"server"`
	Controller  ControllerProfile   `mapstructure:"controller"`
	Controllers []ControllerProfile `mapstructure:"controllers"`
	Session     SessionConfig       `mapstructure:"session"`
	Logging     LoggingConfig       `mapstructure:"logging"`
	Usage       UsageConfig         `mapstructure:"usage"`
}

// ServerConfig defines the HTTP listeners
type ServerConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	Debug       bool   `mapstructure:"debug"`
}

// ControllerProfile is one named set of UniFi controller credentials.
// In single-controller mode the top-level `controller` section is the
// only (implicit) profile and ID is left empty.
type ControllerProfile struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Insecure bool   `mapstructure:"insecure"` // skip TLS verification towards the controller
}

// SessionConfig defines the Redis-backed session store settings
type SessionConfig struct {
	IdleTimeout string `mapstructure:"idle_timeout"`
	// Persistent switches the idle-timeout default from 1h to 168h for
	// long-lived kiosk style deployments. An explicit idle_timeout wins.
	Persistent bool        `mapstructure:"persistent"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UsageConfig defines usage report defaults
type UsageConfig struct {
	DefaultWindowDays int    `mapstructure:"default_window_days"`
	Timezone          string `mapstructure:"timezone"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("UNIFISTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_addr", "0.0.0.0:8080")
	v.SetDefault("server.metrics_addr", "127.0.0.1:9090")
	v.SetDefault("server.debug", false)

	// Session defaults
	v.SetDefault("session.persistent", false)
	v.SetDefault("session.redis.host", "127.0.0.1")
	v.SetDefault("session.redis.port", 6379)
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.pool_size", 10)
	v.SetDefault("session.redis.min_idle_conns", 2)
	v.SetDefault("session.redis.dial_timeout", "5s")
	v.SetDefault("session.redis.read_timeout", "3s")
	v.SetDefault("session.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Usage report defaults
	v.SetDefault("usage.default_window_days", 30)
	v.SetDefault("usage.timezone", "Local")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}

	if cfg.Session.IdleTimeout != "" {
		if _, err := time.ParseDuration(cfg.Session.IdleTimeout); err != nil {
			return fmt.Errorf("invalid session.idle_timeout: %w", err)
		}
	}

	seen := make(map[string]bool, len(cfg.Controllers))
	for i, profile := range cfg.Controllers {
		if profile.ID == "" {
			return fmt.Errorf("controllers[%d]: id must not be empty", i)
		}
		if seen[profile.ID] {
			return fmt.Errorf("controllers[%d]: duplicate id %q", i, profile.ID)
		}
		seen[profile.ID] = true
	}

	if cfg.Usage.DefaultWindowDays < 0 {
		return fmt.Errorf("usage.default_window_days must not be negative")
	}
	if cfg.Usage.Timezone != "" && cfg.Usage.Timezone != "Local" {
		if _, err := time.LoadLocation(cfg.Usage.Timezone); err != nil {
			return fmt.Errorf("invalid usage.timezone: %w", err)
		}
	}

	return nil
}

// IdleTimeout returns the configured session idle timeout, falling back
// to 1h, or 168h when the session is marked persistent.
func (c *Config) IdleTimeout() time.Duration {
	if c.Session.IdleTimeout != "" {
		if d, err := time.ParseDuration(c.Session.IdleTimeout); err == nil {
			return d
		}
	}
	if c.Session.Persistent {
		return 168 * time.Hour
	}
	return time.Hour
}

// Location resolves the configured usage report time zone.
func (c *Config) Location() *time.Location {
	if c.Usage.Timezone == "" || c.Usage.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Usage.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
