package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/storefront/internal/chat"
	"github.com/zulandar/storefront/internal/db"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Customer chat maintenance",
	}

	cmd.AddCommand(newChatPruneCmd())
	return cmd
}

func newChatPruneCmd() *cobra.Command {
	var (
		configPath string
		olderThan  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete chat sessions with no recent messages",
		Long:  "Deletes every chat session whose newest message is older than --older-than. Active sessions are kept whole.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return runChatPrune(cmd, configPath, olderThan)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum idle time of a pruned session")
	return cmd
}

func runChatPrune(cmd *cobra.Command, configPath string, olderThan time.Duration) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	cutoff := time.Now().Add(-olderThan)
	sessions, msgs, err := chat.PruneBefore(gormDB, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d sessions (%d messages) idle since %s\n",
		sessions, msgs, cutoff.Format(time.RFC3339))
	return nil
}
