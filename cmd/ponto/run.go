package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/browser"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/runner"
	"github.com/vleiria/ponto/internal/vision"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the portal and register the clock-in",
	Long:  `Drives the attendance portal through a headless browser, registering the point and reporting each step to the backend. Normally launched by the at(1) job the trigger queued.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAPI(); err != nil {
			return err
		}
		if cfg.SiteURL == "" {
			return fmt.Errorf("URL_SITE is not set")
		}
		if cfg.Username == "" || cfg.Password == "" {
			return fmt.Errorf("PONTO_USER and PONTO_PASS are required")
		}

		var solver vision.Solver
		if cfg.VisionKey != "" {
			solver = vision.NewGemini(cfg.VisionKey)
		}

		r := runner.New(cfg, browser.NewChrome, solver, client.New(apiAddr))
		r.Run(context.Background())
		return nil
	},
}
