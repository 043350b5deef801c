// ABOUTME: Configuration loading and parsing for seatwatch
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum number of bytes required for the session
// signing secret. Shorter secrets are rejected at startup.
const MinSecretLength = 32

// DefaultSessionDuration is used when session.duration is not configured.
const DefaultSessionDuration = 7 * 24 * time.Hour

// Config represents the complete seatwatch configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig holds session cookie signing configuration.
// The secret must come from the config file or an expanded environment
// variable; it is never compiled into the binary.
type SessionConfig struct {
	Secret   string        `yaml:"secret"`
	Duration time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	DurationRaw string `yaml:"duration"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required (set it in the config file or via an environment variable)")
	}
	if len(c.Session.Secret) < MinSecretLength {
		return fmt.Errorf("session.secret must be at least %d bytes, got %d", MinSecretLength, len(c.Session.Secret))
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Session.DurationRaw == "" {
		cfg.Session.Duration = DefaultSessionDuration
		return nil
	}

	d, err := time.ParseDuration(cfg.Session.DurationRaw)
	if err != nil {
		return fmt.Errorf("parsing session duration %q: %w", cfg.Session.DurationRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("session duration must be positive, got %s", d)
	}
	cfg.Session.Duration = d

	return nil
}
