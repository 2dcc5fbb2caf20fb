package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPaths_UnderConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "lootbox")
	require.Equal(t, dir, ConfigDir())
	require.Equal(t, filepath.Join(dir, "config.yaml"), UserConfigPath())
	require.Equal(t, filepath.Join(dir, "journal.db"), DefaultJournalPath())
	require.Equal(t, filepath.Join(dir, "traces", "traces.jsonl"), DefaultTracesPath())
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/assets", filepath.Join(home, "assets")},
		{"/abs/path", "/abs/path"},
		{"relative/~/x", "relative/~/x"},
		{"~other/x", "~other/x"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ExpandHome(tt.in))
		})
	}
}

func TestLocalConfigPath(t *testing.T) {
	require.Equal(t, filepath.Join(".lootbox", "config.yaml"), LocalConfigPath)
}
