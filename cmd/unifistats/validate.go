package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppops/unifistats/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the UniFi Stats configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// Check for unknown keys
	unknownKeys, err := findUnknownKeys(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)

	green := color.New(color.FgGreen)
	if len(cfg.Controllers) > 0 {
		_, _ = green.Printf("   %d controller profile(s) configured\n", len(cfg.Controllers))
	} else if cfg.Controller.URL != "" {
		_, _ = green.Printf("   single controller: %s\n", cfg.Controller.URL)
	} else {
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Println("   no controller configured, credentials must be supplied through the login form")
	}

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		_, _ = red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	return nil
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := getValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}

	return unknown, nil
}

// getValidKeys returns a set of all valid configuration keys
func getValidKeys() map[string]bool {
	keys := map[string]bool{
		// Server
		"server.listen_addr":  true,
		"server.metrics_addr": true,
		"server.debug":        true,

		// Single controller
		"controller.id":       true,
		"controller.name":     true,
		"controller.url":      true,
		"controller.username": true,
		"controller.password": true,
		"controller.insecure": true,

		// Session
		"session.idle_timeout":         true,
		"session.persistent":           true,
		"session.redis.host":           true,
		"session.redis.port":           true,
		"session.redis.password":       true,
		"session.redis.db":             true,
		"session.redis.pool_size":      true,
		"session.redis.min_idle_conns": true,
		"session.redis.dial_timeout":   true,
		"session.redis.read_timeout":   true,
		"session.redis.write_timeout":  true,

		// Logging
		"logging.level":  true,
		"logging.format": true,

		// Controller registry (validated per entry by config.Load)
		"controllers": true,

		// Usage report
		"usage.default_window_days": true,
		"usage.timezone":            true,
	}

	return keys
}
