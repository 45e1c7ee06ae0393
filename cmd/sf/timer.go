package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/storefront/internal/db"
	"github.com/zulandar/storefront/internal/models"
	"github.com/zulandar/storefront/internal/timer"
	"gorm.io/gorm"
)

func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Manage the promotional countdown",
	}

	cmd.AddCommand(newTimerStatusCmd())
	cmd.AddCommand(newTimerStartCmd())
	cmd.AddCommand(newTimerStopCmd())
	cmd.AddCommand(newTimerRestartCmd())
	cmd.AddCommand(newTimerSetCmd())
	return cmd
}

// timerAction runs fn against the configured database and prints the result.
func timerAction(cmd *cobra.Command, configPath, verb string, fn func(*gorm.DB, int) (*models.TimerSetting, error)) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	ts, err := fn(gormDB, cfg.Timer.DefaultHours)
	if err != nil {
		return err
	}
	if verb != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Timer %s.\n", verb)
	}
	printTimer(cmd.OutOrStdout(), ts, time.Now())
	return nil
}

func printTimer(out io.Writer, ts *models.TimerSetting, now time.Time) {
	state := "stopped"
	if ts.IsActive {
		state = "running"
	}
	fmt.Fprintf(out, "State:     %s\n", state)
	fmt.Fprintf(out, "Ends at:   %s\n", ts.EndTime.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Remaining: %s\n", timer.Remaining(*ts, now))
}

func newTimerStatusCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the countdown state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return timerAction(cmd, configPath, "", func(gdb *gorm.DB, _ int) (*models.TimerSetting, error) {
				return timer.Current(gdb)
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func newTimerStartCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Show the countdown without changing its end time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return timerAction(cmd, configPath, "started", func(gdb *gorm.DB, _ int) (*models.TimerSetting, error) {
				return timer.Start(gdb)
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func newTimerStopCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Hide the countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return timerAction(cmd, configPath, "stopped", func(gdb *gorm.DB, _ int) (*models.TimerSetting, error) {
				return timer.Stop(gdb)
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func newTimerRestartCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "restart [hours]",
		Short: "Activate the countdown ending hours from now",
		Long:  "Activates the countdown ending the given number of hours from now. Without an argument, timer.default_hours is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours := 0
			if len(args) == 1 {
				h, err := parseHours(args[0])
				if err != nil {
					return err
				}
				hours = h
			}
			return timerAction(cmd, configPath, "restarted", func(gdb *gorm.DB, def int) (*models.TimerSetting, error) {
				if hours == 0 {
					hours = def
				}
				return timer.Restart(gdb, hours)
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func newTimerSetCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "set <hours>",
		Short: "Move the countdown end to hours from now",
		Long:  "Moves the countdown end to the given number of hours from now without changing whether it is shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := parseHours(args[0])
			if err != nil {
				return err
			}
			return timerAction(cmd, configPath, "updated", func(gdb *gorm.DB, _ int) (*models.TimerSetting, error) {
				return timer.Set(gdb, hours)
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func parseHours(s string) (int, error) {
	h, err := strconv.Atoi(s)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("hours must be a positive whole number, got %q", s)
	}
	return h, nil
}
