package main

import (
	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/trigger"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Queue today's clock-in through at(1)",
	Long:  `Consults the backend and, when today has a pending schedule, queues the runner script through at(1). Meant to run from cron early in the morning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAPI(); err != nil {
			return err
		}

		t := trigger.New(
			client.New(apiAddr),
			&trigger.AtScheduler{ScriptPath: cfg.ScriptPath},
		)
		return t.Run()
	},
}
