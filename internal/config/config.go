// Package config provides configuration management for nixproxy.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xabinapal/nixproxy/internal/envfile"
	"github.com/xabinapal/nixproxy/internal/platform"
	"github.com/xabinapal/nixproxy/internal/service"
)

// DaemonConfig holds overrides for the managed daemon. All fields are
// optional; empty values fall back to the standard nix-daemon locations.
type DaemonConfig struct {
	// PlistPath overrides the launchd descriptor managed on macOS.
	PlistPath string `yaml:"plist_path,omitempty"`
	// DropInPath overrides the systemd drop-in managed on Linux.
	DropInPath string `yaml:"drop_in_path,omitempty"`
	// Unit overrides the systemd unit restarted after a change.
	Unit string `yaml:"unit,omitempty"`
	// Restart controls whether the daemon is restarted after set/unset.
	Restart bool `yaml:"restart"`
}

// NotificationConfig holds settings for desktop notifications.
type NotificationConfig struct {
	// Enabled enables desktop notifications.
	Enabled bool `yaml:"enabled,omitempty"`
	// OnApply sends a notification when a proxy change is applied.
	OnApply bool `yaml:"on_apply,omitempty"`
	// OnFailure sends a notification when the daemon restart fails.
	OnFailure bool `yaml:"on_failure,omitempty"`
}

// Config represents the nixproxy configuration.
type Config struct {
	// Daemon holds daemon path and restart overrides.
	Daemon DaemonConfig `yaml:"daemon,omitempty"`
	// Notifications holds desktop notification settings.
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	// RememberURL controls whether set stores the last URL for reuse.
	RememberURL bool `yaml:"remember_url"`
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Restart: true,
		},
		Notifications: NotificationConfig{
			Enabled:   false,
			OnApply:   true,
			OnFailure: true,
		},
		RememberURL: true,
	}
}

// Load reads the configuration from the default location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(GetPaths().ConfigFile)
}

// LoadFrom reads the configuration from path, layering it over the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path comes from our own config paths
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TargetPath resolves the daemon configuration file managed on p, honoring
// overrides.
func (c *Config) TargetPath(p platform.Platform) string {
	switch p {
	case platform.Darwin:
		if c.Daemon.PlistPath != "" {
			return c.Daemon.PlistPath
		}
	case platform.Linux:
		if c.Daemon.DropInPath != "" {
			return c.Daemon.DropInPath
		}
	}
	return envfile.DefaultPath(p)
}

// UnitName resolves the systemd unit restarted on Linux.
func (c *Config) UnitName() string {
	if c.Daemon.Unit != "" {
		return c.Daemon.Unit
	}
	return service.DefaultUnit
}
