// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the file config.
const (
	EnvAPIURL   = "TYPEMASTER_API_URL"
	EnvLogLevel = "TYPEMASTER_LOG_LEVEL"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API  APIConfig  `toml:"api"`
	Test TestConfig `toml:"test"`
	UI   UIConfig   `toml:"ui"`
	Log  LogConfig  `toml:"log"`
}

// APIConfig maps backend connection settings.
type APIConfig struct {
	BaseURL        *string  `toml:"base-url"`
	TimeoutSeconds *int     `toml:"timeout-seconds"`
	RateLimit      *float64 `toml:"rate-limit"`
}

// TestConfig maps typing-test settings.
type TestConfig struct {
	Difficulty *string `toml:"difficulty"`
}

// UIConfig maps presentation settings.
type UIConfig struct {
	AlertMs *int `toml:"alert-ms"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment. Missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func ApplyEnv(cfg *FileConfig, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = &v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = &v
	}
}
