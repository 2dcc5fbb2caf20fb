// Package paths provides default file locations.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "lootbox"

// LocalConfigPath is the project-local config file, checked before the user config.
var LocalConfigPath = filepath.Join("."+appName, "config.yaml")

// ConfigDir returns ~/.config/lootbox, or "" when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// UserConfigPath returns ~/.config/lootbox/config.yaml.
func UserConfigPath() string {
	return inConfigDir("config.yaml")
}

// DefaultJournalPath returns ~/.config/lootbox/journal.db.
func DefaultJournalPath() string {
	return inConfigDir("journal.db")
}

// DefaultTracesPath returns ~/.config/lootbox/traces/traces.jsonl.
func DefaultTracesPath() string {
	return inConfigDir(filepath.Join("traces", "traces.jsonl"))
}

func inConfigDir(name string) string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Paths without one, and paths when home is unknown, are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
