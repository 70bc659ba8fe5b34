package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/models"
)

var (
	scheduleDate   string
	scheduleHour   string
	scheduleMinute string
)

var agendarCmd = &cobra.Command{
	Use:   "agendar",
	Short: "Create or reset the clock-in schedule",
	RunE:  runAgendar,
}

func init() {
	agendarCmd.Flags().StringVar(&scheduleDate, "data", "", "Execution date (YYYY-MM-DD, default today)")
	agendarCmd.Flags().StringVar(&scheduleHour, "hora", "", "Hour (HH)")
	agendarCmd.Flags().StringVar(&scheduleMinute, "minuto", "", "Minute (MM)")
	agendarCmd.MarkFlagRequired("hora")
	agendarCmd.MarkFlagRequired("minuto")
}

func runAgendar(cmd *cobra.Command, args []string) error {
	if err := requireAPI(); err != nil {
		return err
	}

	date := scheduleDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	task, err := client.New(apiAddr).Agendar(scheduleHour, scheduleMinute, date, nil, nil)
	if err != nil {
		return err
	}

	fmt.Println("Schedule saved:")
	printTask(task)
	return nil
}

var consultarCmd = &cobra.Command{
	Use:   "consultar",
	Short: "Show the current schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAPI(); err != nil {
			return err
		}
		task, err := client.New(apiAddr).Consultar()
		if err != nil {
			return err
		}
		if task == nil {
			fmt.Println("No schedule configured.")
			return nil
		}
		printTask(task)
		return nil
	},
}

func printTask(task *models.TaskRecord) {
	fmt.Printf("  id:        %s\n", task.ID)
	fmt.Printf("  date:      %s at %s:%s\n", task.ExecutionDate, task.Hour, task.Minute)
	fmt.Printf("  origin:    %s\n", task.Origin)
	fmt.Printf("  status:    %s\n", task.Status)
	fmt.Printf("  completed: %v\n", task.CompletedOK)
	if task.SuccessMessage != "" {
		fmt.Printf("  message:   %s\n", task.SuccessMessage)
	}
	if !task.RequestedAt.IsZero() {
		fmt.Printf("  requested: %s\n", task.RequestedAt.Local().Format(time.RFC3339))
	}
}
