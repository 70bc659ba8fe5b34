package main

import (
	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/tui"
)

var watchLimit int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the schedule lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAPI(); err != nil {
			return err
		}
		return tui.Run(client.New(apiAddr), watchLimit)
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchLimit, "limit", 20, "Number of recent records to show")
}
