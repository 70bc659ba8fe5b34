package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host environment",
	Long:  `Probes for the binaries and environment variables the trigger and the runner depend on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := doctor.New(cfg).Scan()

		failed := 0
		for _, c := range checks {
			mark := "ok"
			if !c.OK {
				mark = "FAIL"
				failed++
			}
			line := fmt.Sprintf("  [%s] %-16s", mark, c.Name)
			if c.Path != "" {
				line += " " + c.Path
			}
			if c.Version != "" {
				line += " (" + c.Version + ")"
			}
			if c.Detail != "" {
				line += " " + c.Detail
			}
			fmt.Println(line)
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		fmt.Println("All checks passed.")
		return nil
	},
}
