// ABOUTME: chat subcommand: live session against the gateway.
// ABOUTME: Subscribes to one channel, renders events, sends stdin lines.

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quaddle/quaddle-go/internal/config"
	"github.com/quaddle/quaddle-go/internal/gateway"
	"github.com/quaddle/quaddle-go/internal/httpapi"
	"github.com/quaddle/quaddle-go/internal/ids"
	"github.com/quaddle/quaddle-go/internal/model"
	"github.com/quaddle/quaddle-go/internal/wire"
)

func chatCmd(flags *rootFlags) *cobra.Command {
	var channel uint64

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Connect to the gateway and chat in a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Auth.Token == "" {
				return fmt.Errorf("no auth token: run \"quaddle-tui login\" first")
			}

			logger := setupLogger(cfg.Logging)
			return runChat(cmd.Context(), cfg, logger, model.ChannelID(channel))
		},
	}

	cmd.Flags().Uint64Var(&channel, "channel", 0, "channel ID to join")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func runChat(ctx context.Context, cfg *config.Config, logger *slog.Logger, channel model.ChannelID) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	sup, err := gateway.NewSupervisor(cfg.Server.URL, cfg.Auth.Token, gateway.Options{
		UserAgent:        cfg.Server.UserAgent,
		ReconnectWait:    cfg.Gateway.ReconnectWait,
		MaxReconnectWait: cfg.Gateway.MaxReconnectWait,
		QueueSize:        cfg.Gateway.QueueSize,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	updates := sup.Run(ctx)

	lines := make(chan string)
	go readLines(ctx, lines)

	var (
		green  = color.New(color.FgGreen)
		yellow = color.New(color.FgYellow)
		red    = color.New(color.FgRed)
		gray   = color.New(color.FgHiBlack)
	)

	gray.Printf("connecting to %s (channel %s)...\n", cfg.Server.URL, channel)

	for {
		select {
		case <-ctx.Done():
			return nil

		case u, ok := <-updates:
			if !ok {
				return nil
			}
			switch u := u.(type) {
			case gateway.Connected:
				green.Printf("● connected as %s (session %s)\n", u.User.Name, u.SessionID)
				if !u.Handle.Subscribe(channel) {
					logger.Warn("subscribe dropped, connection already gone", "channel", channel)
				}
			case gateway.Event:
				renderEvent(u.Event, channel)
			case gateway.ReceiveError:
				logger.Warn("undecodable gateway frame", "err", u.Err)
			case gateway.Disconnected:
				yellow.Println("● disconnected, reconnecting...")
			case gateway.ConnectionError:
				red.Printf("● connection error: %v\n", u.Err)
			}

		case line, ok := <-lines:
			if !ok {
				cancel()
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			sendMessage(ctx, api, logger, channel, line)
		}
	}
}

// readLines feeds stdin lines into out until EOF or cancellation.
func readLines(ctx context.Context, out chan<- string) {
	defer close(out)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// sendMessage posts one message through the HTTP API. The gateway echoes
// it back as a message_create event, so nothing is rendered here.
func sendMessage(ctx context.Context, api *httpapi.Client, logger *slog.Logger, channel model.ChannelID, content string) {
	sendID := ids.Next()
	logger.Debug("sending message", "send_id", sendID, "channel", channel)

	if _, err := api.CreateMessage(ctx, channel, content); err != nil {
		color.New(color.FgRed).Printf("send failed: %v\n", err)
		logger.Warn("create message failed", "send_id", sendID, "err", err)
	}
}

// renderEvent prints protocol events for the subscribed channel.
func renderEvent(ev wire.Event, channel model.ChannelID) {
	switch ev := ev.(type) {
	case wire.MessageCreate:
		if ev.Message.Channel != channel {
			return
		}
		printMessage(ev.Message)
	case wire.ErrorEvent:
		color.New(color.FgRed).Printf("● server error: %s\n", ev.Reason)
	default:
		// Unknown or irrelevant events are no-ops.
	}
}

func printMessage(msg model.Message) {
	author := color.New(color.FgCyan, color.Bold).Sprint(msg.Author.Name)
	ts := color.New(color.FgHiBlack).Sprint(msg.ID.Timestamp().Local().Format("15:04"))
	fmt.Printf("%s %s: %s\n", ts, author, msg.Content)
}
