// ABOUTME: history subcommand: page through a channel's message history.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quaddle/quaddle-go/internal/model"
)

func historyCmd(flags *rootFlags) *cobra.Command {
	var (
		channel uint64
		before  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent messages from a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			var beforeID *model.MessageID
			if before != "" {
				id, err := model.ParseMessageID(before)
				if err != nil {
					return fmt.Errorf("parsing --before: %w", err)
				}
				beforeID = &id
			}

			msgs, err := api.MessageHistory(cmd.Context(), model.ChannelID(channel), beforeID)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}

			// The API returns newest first; print oldest first.
			for i := len(msgs) - 1; i >= 0; i-- {
				printMessage(msgs[i])
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&channel, "channel", 0, "channel ID")
	cmd.Flags().StringVar(&before, "before", "", "only messages older than this message ID")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
