package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// HomeEnv overrides the configuration directory
	HomeEnv = "PROXYVIEW_HOME"
)

var (
	// ConfigDir is the global configuration directory (~/.proxyview)
	ConfigDir string

	// DatabasePath is the SQLite database holding the history and bookmark lists
	DatabasePath string

	// StoragePath is the JSON key-value file used by the "file" storage backend
	StoragePath string

	// LogFile receives structured logs (the TUI owns stdout)
	LogFile string

	// SettingsTOML and SettingsJSON are the settings file candidates, TOML first
	SettingsTOML string
	SettingsJSON string

	// KeybindsFile holds user keybinding overrides
	KeybindsFile string
)

// Initialize sets up the configuration directory and the derived paths.
// It creates ~/.proxyview/ (or $PROXYVIEW_HOME) if it doesn't exist.
func Initialize() error {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".proxyview")
	}

	SetPaths(dir)

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// SetPaths points every derived path at dir without touching the filesystem
func SetPaths(dir string) {
	ConfigDir = dir
	DatabasePath = filepath.Join(dir, "proxyview.db")
	StoragePath = filepath.Join(dir, "storage.json")
	LogFile = filepath.Join(dir, "proxyview.log")
	SettingsTOML = filepath.Join(dir, "settings.toml")
	SettingsJSON = filepath.Join(dir, "settings.json")
	KeybindsFile = filepath.Join(dir, "keybinds.json")
}
