// ABOUTME: Configuration loading and parsing for parley
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389/parley/internal/timeline"
)

// Config represents the complete parley configuration
type Config struct {
	History HistoryConfig `yaml:"history"`
	Engine  EngineConfig  `yaml:"engine"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

// HistoryConfig holds the persistent message ledger configuration
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig holds reconciliation policy configuration
type EngineConfig struct {
	// DeltaOverwrite controls repeated sequence numbers within a streaming
	// session: "last_write_wins" (default) or "first_write_wins".
	DeltaOverwrite string `yaml:"delta_overwrite"`

	// OrphanReplies controls replies whose parent has not arrived:
	// "show" (default) or "hide".
	OrphanReplies string `yaml:"orphan_replies"`
}

// FeedConfig holds event-loop tuning configuration
type FeedConfig struct {
	DedupeWindow  time.Duration `yaml:"-"`
	DedupeMaxSize int           `yaml:"dedupe_max_size"`
	BufferSize    int           `yaml:"buffer_size"`

	// Raw string value for YAML unmarshaling
	DedupeWindowRaw string `yaml:"dedupe_window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TimelineOptions maps the engine policy strings onto reconciliation options.
func (e EngineConfig) TimelineOptions() timeline.Options {
	return timeline.Options{
		DeltaOverwrite: timeline.OverwritePolicy(e.DeltaOverwrite),
		OrphanReplies:  timeline.OrphanPolicy(e.OrphanReplies),
	}
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

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}

	switch c.Engine.DeltaOverwrite {
	case "", string(timeline.OverwriteLastWins), string(timeline.OverwriteFirstWins):
	default:
		return fmt.Errorf("engine.delta_overwrite must be %q or %q, got %q",
			timeline.OverwriteLastWins, timeline.OverwriteFirstWins, c.Engine.DeltaOverwrite)
	}

	switch c.Engine.OrphanReplies {
	case "", string(timeline.OrphansShow), string(timeline.OrphansHide):
	default:
		return fmt.Errorf("engine.orphan_replies must be %q or %q, got %q",
			timeline.OrphansShow, timeline.OrphansHide, c.Engine.OrphanReplies)
	}

	if c.Feed.DedupeMaxSize < 0 {
		return fmt.Errorf("feed.dedupe_max_size must not be negative")
	}
	if c.Feed.BufferSize < 0 {
		return fmt.Errorf("feed.buffer_size must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Feed.DedupeWindowRaw != "" {
		cfg.Feed.DedupeWindow, err = time.ParseDuration(cfg.Feed.DedupeWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_window %q: %w", cfg.Feed.DedupeWindowRaw, err)
		}
	}

	return nil
}
