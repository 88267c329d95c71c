//go:build !darwin

package store

import (
	"fmt"
	"os"
	"path/filepath"
)

func DefaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "prefs-data"
		}
	}
	return filepath.Join(dir, "prefs")
}

func DefaultFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "prefs", "settings.json")
}

// DefaultConfigPath is where prefs keeps its own configuration.
func DefaultConfigPath() string {
	return filepath.Join(filepath.Dir(DefaultFilePath()), "config.json")
}

func isConfigPath(path string) bool {
	return filepath.Clean(path) == filepath.Clean(DefaultConfigPath())
}

func openConfig() (Store, error) {
	return OpenFile(DefaultConfigPath())
}

func openPlatform(string) (Store, error) {
	return OpenFile(DefaultFilePath())
}

func openDefaults(string) (Store, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, BackendDefaults)
}
