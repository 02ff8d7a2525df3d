package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppops/unifistats/internal/config"
	"github.com/ppops/unifistats/internal/controller"
	"github.com/ppops/unifistats/internal/storage"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check [CONTROLLER_ID]",
	Short: "Check controller connectivity",
	Long: `Check that the configured UniFi controllers are reachable and the
credentials are accepted. With a registry configured, an optional argument
limits the check to one profile.`,
	Example: `  unifistats -c config.yaml check
  unifistats -c config.yaml check lab`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 15*time.Second, "Per-controller probe timeout")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Quiet logger for check mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	profiles := cfg.Controllers
	if len(profiles) == 0 {
		profiles = []config.ControllerProfile{cfg.Controller}
	}
	if len(args) == 1 {
		var match []config.ControllerProfile
		for _, p := range profiles {
			if p.ID == args[0] {
				match = append(match, p)
			}
		}
		if len(match) == 0 {
			return fmt.Errorf("unknown controller id: %s", args[0])
		}
		profiles = match
	}

	failed := 0
	for _, p := range profiles {
		if !probeController(p, logger) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d controller(s) failed the check", failed, len(profiles))
	}
	return nil
}

func probeController(p config.ControllerProfile, logger zerolog.Logger) bool {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	name := p.Name
	if name == "" {
		name = p.URL
	}

	fmt.Println()
	_, _ = cyan.Printf("Checking %s (%s)\n", name, p.URL)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	client := controller.New(storage.Controller{
		Name:     name,
		URL:      p.URL,
		Username: p.Username,
		Password: p.Password,
		Insecure: p.Insecure,
	}, logger)

	start := time.Now()
	if err := client.Login(ctx); err != nil {
		_, _ = red.Printf("  Login:   FAILED (%v)\n", err)
		return false
	}
	_, _ = green.Printf("  Login:   OK (%s)\n", time.Since(start).Round(time.Millisecond))

	sites, err := client.ListSites(ctx)
	if err != nil {
		_, _ = red.Printf("  Sites:   FAILED (%v)\n", err)
		return false
	}
	_, _ = green.Printf("  Sites:   %d available\n", len(sites))

	if len(sites) > 0 {
		info, err := client.SysInfo(ctx, sites[0].Name)
		if err != nil {
			_, _ = red.Printf("  Version: FAILED (%v)\n", err)
			return false
		}
		fmt.Printf("  Version: %s\n", controller.DetectVersion(info))
	}

	return true
}
