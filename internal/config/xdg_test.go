package config

import (
	"path/filepath"
	"testing"
)

func TestXDGPathsFollowEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "typemaster", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "typemaster", "typemaster.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "typemaster", "typemaster.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}

func TestXDGHomeFallsBackToUserHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	if got := XDGDataHome(); got != filepath.Join(home, ".local", "share") {
		t.Fatalf("unexpected data home %q", got)
	}
}
