// Package cliconfig loads the siloharness CLI configuration from TOML.
// Everything in it is optional; flags override file values.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds CLI defaults.
type Config struct {
	Server   string `toml:"server"`
	Scenario string `toml:"scenario"`
	Journal  string `toml:"journal"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "siloharness", "config.toml")
}

// Load reads the config at path. A missing file yields the zero Config;
// only a present but unparsable file is an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("cliconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}
