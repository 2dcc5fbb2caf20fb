package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/lootbox/internal/flags"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Empty(t, cfg.Catalogue, "empty catalogue selects the embedded default")
	require.Equal(t, ".", cfg.Assets.Root)
	require.Equal(t, 8, cfg.Assets.MaxInFlight)
	require.Zero(t, cfg.Load.Timeout, "no timeout unless configured")
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.True(t, cfg.Flags[flags.FlagVerifyLoot])
	require.False(t, cfg.Flags[flags.FlagJournal])
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Assets.BaseURL = "/assets" },
			wantErr: "assets.base_url must be an absolute URL",
		},
		{
			name:    "negative max in flight",
			mutate:  func(c *Config) { c.Assets.MaxInFlight = -1 },
			wantErr: "assets.max_in_flight",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.Assets.CacheTTL = -time.Second },
			wantErr: "assets.cache_ttl",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Load.Timeout = -time.Second },
			wantErr: "load.timeout",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:    "sample rate out of range",
			mutate:  func(c *Config) { c.Tracing.SampleRate = 1.5 },
			wantErr: "tracing.sample_rate",
		},
		{
			name:    "unknown exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "zipkin" },
			wantErr: "tracing.exporter",
		},
		{
			name: "file exporter without path",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.FilePath = ""
			},
			wantErr: "tracing.file_path is required",
		},
		{
			name: "otlp exporter without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
				c.Tracing.OTLPEndpoint = ""
			},
			wantErr: "tracing.otlp_endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Load.Timeout = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.ErrorContains(t, err, "load.timeout")
	require.ErrorContains(t, err, "log.level")
}

func TestValidate_BaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Assets.BaseURL = "https://cdn.example.com/game/"
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigTemplate_IsValidYAML(t *testing.T) {
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &parsed))

	assets, ok := parsed["assets"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 8, assets["max_in_flight"])

	fl, ok := parsed["flags"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, fl[flags.FlagVerifyLoot])
	require.Equal(t, false, fl[flags.FlagJournal])
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lootbox", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
