// ABOUTME: Configuration loading and parsing for the Quaddle client.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Gateway GatewayConfig `yaml:"gateway"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig identifies the Quaddle instance to talk to.
type ServerConfig struct {
	// URL is the base address of the service; both the HTTP API and the
	// gateway upgrade route are resolved against it.
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent"`
}

// AuthConfig holds the login token.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// GatewayConfig holds gateway reconnect tuning.
type GatewayConfig struct {
	ReconnectWait    time.Duration `yaml:"-"`
	MaxReconnectWait time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	ReconnectWaitRaw    string `yaml:"reconnect_wait"`
	MaxReconnectWaitRaw string `yaml:"max_reconnect_wait"`

	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UserAgent: "quaddle-go",
		},
		Gateway: GatewayConfig{
			ReconnectWait:    time.Second,
			MaxReconnectWait: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values. Defaults apply
// for anything the file leaves out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to "".
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}

	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Opaque != "" || u.Host == "" {
		return fmt.Errorf("server.url %q cannot accept path segments", c.Server.URL)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Gateway.ReconnectWaitRaw != "" {
		cfg.Gateway.ReconnectWait, err = time.ParseDuration(cfg.Gateway.ReconnectWaitRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_wait %q: %w", cfg.Gateway.ReconnectWaitRaw, err)
		}
	}

	if cfg.Gateway.MaxReconnectWaitRaw != "" {
		cfg.Gateway.MaxReconnectWait, err = time.ParseDuration(cfg.Gateway.MaxReconnectWaitRaw)
		if err != nil {
			return fmt.Errorf("parsing max_reconnect_wait %q: %w", cfg.Gateway.MaxReconnectWaitRaw, err)
		}
	}

	return nil
}
