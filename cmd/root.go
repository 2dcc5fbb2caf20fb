package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/config"
	"github.com/zjrosen/lootbox/internal/flags"
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/paths"
	"github.com/zjrosen/lootbox/internal/presentation"
)

var version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile    string
	configPath string
	debug      bool
	jsonOut    bool

	cfg      config.Config
	flags    *flags.Registry
	closeLog func()
}

// NewRootCmd builds the lootbox command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lootbox",
		Short: "Load a game's models and textures as one session",
		Long: `lootbox loads every model and texture listed in a catalogue concurrently,
records which models are loot, and reports once the whole batch has settled.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .lootbox/config.yaml, then ~/.config/lootbox/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false,
		"write debug logs to stderr")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false,
		"print results as JSON")

	root.AddCommand(
		newLoadCmd(a),
		newCatalogueCmd(a),
		newHistoryCmd(a),
		newFlagCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if a.debug {
		log.InitWithWriter(cmd.ErrOrStderr(), log.LevelDebug)
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", a.configPath, err)
	}

	if !a.debug && a.cfg.Log.Path != "" {
		cleanup, err := log.Init(paths.ExpandHome(a.cfg.Log.Path))
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.closeLog = cleanup
		log.SetMinLevel(log.ParseLevel(a.cfg.Log.Level))
	}

	a.flags = flags.New(a.cfg.Flags)
	log.Debug(log.CatConfig, "configuration loaded", "path", a.configPath, "flags", a.flags.All())
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// loadConfig resolves the config file and unmarshals it over the defaults.
// Lookup order: --config, .lootbox/config.yaml, ~/.config/lootbox/config.yaml.
// When nothing exists a commented default is written to .lootbox/config.yaml.
func (a *app) loadConfig() error {
	v := viper.New()
	setDefaults(v, config.Defaults())

	path := a.cfgFile
	if path == "" {
		path = findConfig()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		// If write fails, just continue with defaults (no config file)
		if writeErr := config.WriteDefaultConfig(path); writeErr != nil {
			log.Warn(log.CatConfig, "continuing without config file", "path", path, "error", writeErr)
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}
	a.cfg = cfg
	a.configPath = path
	return nil
}

func findConfig() string {
	if _, err := os.Stat(paths.LocalConfigPath); err == nil {
		return paths.LocalConfigPath
	}
	if user := paths.UserConfigPath(); user != "" {
		if _, err := os.Stat(user); err == nil {
			return user
		}
	}
	return paths.LocalConfigPath
}

func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("catalogue", d.Catalogue)
	v.SetDefault("assets.root", d.Assets.Root)
	v.SetDefault("assets.base_url", d.Assets.BaseURL)
	v.SetDefault("assets.max_in_flight", d.Assets.MaxInFlight)
	v.SetDefault("assets.cache_ttl", d.Assets.CacheTTL)
	v.SetDefault("load.timeout", d.Load.Timeout)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("journal.path", d.Journal.Path)
}

// catalogue returns the configured catalogue or the embedded one.
func (a *app) catalogue() (catalogue.Catalogue, error) {
	if a.cfg.Catalogue == "" {
		return catalogue.Default(), nil
	}
	path := a.resolve(a.cfg.Catalogue)
	return catalogue.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// resolve expands ~ and anchors relative paths at the directory holding the
// config file.
func (a *app) resolve(path string) string {
	path = paths.ExpandHome(path)
	if filepath.IsAbs(path) || a.configPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(a.configPath), path)
}

func (a *app) formatter(cmd *cobra.Command) *presentation.Formatter {
	if a.jsonOut {
		return presentation.NewJSONFormatter(cmd.OutOrStdout())
	}
	return presentation.NewFormatter(cmd.OutOrStdout())
}

// Execute runs the root command
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
