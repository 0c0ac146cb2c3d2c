// ABOUTME: send subcommand: post a single message without a live session.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quaddle/quaddle-go/internal/model"
)

func sendCmd(flags *rootFlags) *cobra.Command {
	var (
		channel uint64
		message string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Post one message to a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			msg, err := api.CreateMessage(cmd.Context(), model.ChannelID(channel), message)
			if err != nil {
				return fmt.Errorf("creating message: %w", err)
			}

			fmt.Println(msg.ID)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&channel, "channel", 0, "channel ID")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message content")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
