// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appDir = "typemaster"

// xdgHome returns the directory named by env, or fallback under the user's home.
// Without a home directory it falls back to the working directory.
func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string { return xdgHome("XDG_CONFIG_HOME", ".config") }

// XDGDataHome returns $XDG_DATA_HOME or ~/.local/share.
func XDGDataHome() string { return xdgHome("XDG_DATA_HOME", ".local", "share") }

// XDGStateHome returns $XDG_STATE_HOME or ~/.local/state.
func XDGStateHome() string { return xdgHome("XDG_STATE_HOME", ".local", "state") }

// DefaultDBPath is the session database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "typemaster.db")
}

// DefaultLogPath is the log file written while a full-screen view runs.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appDir, "typemaster.log")
}

// DefaultConfigPath is the TOML config file.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}
