package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ponto",
	Short: "ponto - personal time-clock automation",
	Long:  `ponto coordinates a daily attendance clock-in: a scheduler backend, a morning trigger that queues the run through at(1), and a headless-browser runner that registers the point.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
	cfg     *config.Config
)

func init() {
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", cfg.APIURL, "Backend API address (defaults to URL_API)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(agendarCmd)
	rootCmd.AddCommand(consultarCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
}

// requireAPI guards the commands that talk to the backend.
func requireAPI() error {
	if apiAddr == "" {
		return cfg.RequireAPIURL()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
