// ABOUTME: Terminal client for the Quaddle chat service.
// ABOUTME: Wires config, logging, the REST client, and the gateway supervisor.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quaddle/quaddle-go/internal/config"
	"github.com/quaddle/quaddle-go/internal/httpapi"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	config string
	server string
	token  string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "quaddle-tui",
		Short:         "Terminal client for the Quaddle chat service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.config, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flags.server, "server", "", "Quaddle server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "auth token (overrides config and QUADDLE_TOKEN)")

	cmd.AddCommand(
		loginCmd(flags),
		chatCmd(flags),
		historyCmd(flags),
		sendCmd(flags),
	)
	return cmd
}

// getConfigPath returns the path to the client config file.
// Priority: QUADDLE_CONFIG env var > XDG_CONFIG_HOME/quaddle/config.yaml >
// ~/.config/quaddle/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("QUADDLE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "quaddle", "config.yaml")
}

// loadConfig resolves the effective configuration from file, environment,
// and flags; flags win.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	path := flags.config
	if path == "" {
		path = getConfigPath()
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && flags.config == "":
		// No config file is fine; flags and env have to carry it.
		cfg = config.Default()
	default:
		return nil, err
	}

	if flags.server != "" {
		cfg.Server.URL = flags.server
	}
	if flags.token != "" {
		cfg.Auth.Token = flags.token
	} else if cfg.Auth.Token == "" {
		cfg.Auth.Token = os.Getenv("QUADDLE_TOKEN")
	}
	if cfg.Server.UserAgent == "" {
		cfg.Server.UserAgent = "quaddle-tui/" + version
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger creates a logger based on config settings.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler).With("run_id", uuid.NewString())
}

// newAPIClient builds a REST client carrying the configured token.
func newAPIClient(cfg *config.Config) (*httpapi.Client, error) {
	api, err := httpapi.New(cfg.Server.URL, cfg.Server.UserAgent)
	if err != nil {
		return nil, err
	}
	api.SetToken(cfg.Auth.Token)
	return api, nil
}
