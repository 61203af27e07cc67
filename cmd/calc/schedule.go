package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewAutoClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auto-clear [cron-expression]",
		Aliases: []string{"ac"},
		Short:   "Manage the automatic clear schedule",
		Long: `Manage the automatic clear schedule.

The auto-clear command can be used in multiple ways:
  calc auto-clear 'minute hour day month weekday' Set schedule with cron expression
  calc auto-clear disable                         Disable the schedule
  calc auto-clear skip                            Skip next run
  calc auto-clear show                            Show current schedule`,
		Example: `  calc auto-clear '0 0 * * *'  (At midnight)
  calc auto-clear '@every 30m' (Every 30 minutes)
  calc auto-clear '0 18 * * 1-5' (At 18:00 on weekdays)`,
		GroupID: gAdvanced,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runAutoClearShow(cmd)
			}
			return runAutoClearSet(cmd, args[0])
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "disable",
			Short: "Disable the auto clear schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := apiClient.SetAutoClearSchedule(""); err != nil {
					return err
				}
				cmd.Println("Auto clear disabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "skip",
			Short: "Skip the next scheduled clear",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := apiClient.SkipAutoClear(); err != nil {
					return err
				}
				cmd.Println("Next scheduled clear skipped.")
				return runAutoClearShow(cmd)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the auto clear schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runAutoClearShow(cmd)
			},
		},
	)

	return cmd
}

func runAutoClearSet(cmd *cobra.Command, cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	ret, err := apiClient.SetAutoClearSchedule(cronExpr)
	if err != nil {
		return err
	}
	logResponse(ret)
	return runAutoClearShow(cmd)
}

func runAutoClearShow(cmd *cobra.Command) error {
	st, err := apiClient.GetAutoClearSchedule()
	if err != nil {
		return err
	}
	if st.Schedule == "" {
		cmd.Println("Auto clear is not set.")
		return nil
	}

	cmd.Printf("Schedule: %s\n", st.Schedule)
	if next, err := time.Parse(time.RFC3339, st.NextRun); err == nil {
		cmd.Printf("Next run: %s\n", next.Local().Format(time.DateTime))
	}
	return nil
}
