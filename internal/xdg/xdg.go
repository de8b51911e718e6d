// Package xdg resolves composewait's configuration and state locations
// following the XDG Base Directory layout.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base
const AppName = "composewait"

func baseDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{homeDir}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// ConfigDir returns the config directory
// Priority: XDG_CONFIG_HOME > ~/.config/composewait
func ConfigDir() (string, error) {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the state directory holding the run history
// Priority: XDG_STATE_HOME > ~/.local/state/composewait
func StateDir() (string, error) {
	return baseDir("XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the default config file path
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryDB returns the default run history database path
func HistoryDB() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
