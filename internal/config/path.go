// Package config loads the typed toxref configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration directory.
const AppName = "toxref"

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references. Paths it cannot resolve are returned as given.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + strings.TrimPrefix(path, "~")
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// Dir returns the toxref configuration directory, under $XDG_CONFIG_HOME
// when set and ~/.config otherwise.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// File returns the path of name inside the configuration directory.
func File(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
