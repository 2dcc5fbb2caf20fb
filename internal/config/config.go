// Package config provides configuration types and defaults for lootbox.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/lootbox/internal/flags"
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/paths"
)

// Config holds all configuration options for lootbox.
type Config struct {
	// Catalogue is the path of a catalogue YAML file. Empty uses the embedded default.
	Catalogue string          `mapstructure:"catalogue"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Load      LoadConfig      `mapstructure:"load"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Flags     map[string]bool `mapstructure:"flags"`
}

// AssetsConfig selects where asset bytes come from.
type AssetsConfig struct {
	// Root is a directory that locators are resolved against.
	// Ignored when BaseURL is set.
	Root string `mapstructure:"root"`

	// BaseURL fetches assets over HTTP, resolving locators against it.
	BaseURL string `mapstructure:"base_url"`

	// MaxInFlight bounds concurrent requests. 0 means unbounded.
	MaxInFlight int `mapstructure:"max_in_flight"`

	// CacheTTL keeps fetched bytes for this long. 0 keeps them for the whole run.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoadConfig controls a load session.
type LoadConfig struct {
	// Timeout bounds the wait for the aggregate. 0 waits forever.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Path of the log file. Empty disables file logging.
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/lootbox/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// JournalConfig locates the session history database.
// Recording is switched on by the "journal" feature flag.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Assets: AssetsConfig{
			Root:        ".",
			MaxInFlight: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     paths.DefaultTracesPath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Journal: JournalConfig{
			Path: paths.DefaultJournalPath(),
		},
		Flags: flags.Defaults(),
	}
}

// Validate checks the whole configuration and reports every problem found.
func (c Config) Validate() error {
	return errors.Join(
		ValidateAssets(c.Assets),
		ValidateLoad(c.Load),
		ValidateLog(c.Log),
		ValidateTracing(c.Tracing),
	)
}

// ValidateAssets checks asset source configuration.
func ValidateAssets(assets AssetsConfig) error {
	if assets.BaseURL != "" {
		u, err := url.Parse(assets.BaseURL)
		if err != nil {
			return fmt.Errorf("assets.base_url: %w", err)
		}
		if !u.IsAbs() {
			return fmt.Errorf("assets.base_url must be an absolute URL, got %q", assets.BaseURL)
		}
	}
	if assets.MaxInFlight < 0 {
		return fmt.Errorf("assets.max_in_flight must be >= 0, got %d", assets.MaxInFlight)
	}
	if assets.CacheTTL < 0 {
		return fmt.Errorf("assets.cache_ttl must be >= 0, got %s", assets.CacheTTL)
	}
	return nil
}

// ValidateLoad checks load session configuration.
func ValidateLoad(load LoadConfig) error {
	if load.Timeout < 0 {
		return fmt.Errorf("load.timeout must be >= 0, got %s", load.Timeout)
	}
	return nil
}

// ValidateLog checks logging configuration.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# lootbox configuration

# Catalogue file listing every model and texture to load.
# Leave empty to use the built-in dungeon loot catalogue.
# Relative paths in this file are resolved against its directory.
# catalogue: ./catalogue.yaml

assets:
  root: .                # Asset directory, relative to this file
  # base_url: https://cdn.example.com/game/   # Fetch over HTTP instead of from root
  max_in_flight: 8       # Concurrent requests (0 = unbounded)
  # cache_ttl: 10m       # Keep fetched bytes this long (0 = whole run)

load:
  timeout: 0s            # Give up waiting for the session (0 = wait forever)

log:
  # path: ~/.config/lootbox/lootbox.log
  level: info            # debug, info, warn, error

# Distributed tracing (optional)
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/lootbox/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# journal:
#   path: ~/.config/lootbox/journal.db

flags:
  verify-loot: true      # Warn about loot names with no loaded model
  journal: false         # Record every load session to the journal
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
