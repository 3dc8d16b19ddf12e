// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer  TimerConfig  `toml:"timer"`
	Notify NotifyConfig `toml:"notify"`
	User   UserConfig   `toml:"user"`
}

// TimerConfig maps timer durations. Minutes may be fractional.
type TimerConfig struct {
	WorkMinutes    *float64 `toml:"work-minutes"`
	BreakMinutes   *float64 `toml:"break-minutes"`
	PollIntervalMs *int     `toml:"poll-interval-ms"`
}

// NotifyConfig maps desktop notification settings.
type NotifyConfig struct {
	Enabled *bool `toml:"enabled"`
}

// UserConfig maps the user signed in at startup.
type UserConfig struct {
	Default *string `toml:"default"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
