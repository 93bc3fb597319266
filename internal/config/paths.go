package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for directories.
	AppName = "nixproxy"
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "config.yaml"
	// ConfigDirEnvVar overrides the configuration directory, mainly for
	// tests and the integration harness.
	ConfigDirEnvVar = "NIXPROXY_CONFIG_DIR"
)

// Paths holds the application paths.
type Paths struct {
	ConfigDir  string
	ConfigFile string
}

// GetPaths returns the application paths following the XDG Base Directory
// specification.
func GetPaths() Paths {
	dir := getConfigDir()
	return Paths{
		ConfigDir:  dir,
		ConfigFile: filepath.Join(dir, ConfigFileName),
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	// Check for explicit override
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir
	}

	switch runtime.GOOS {
	case "darwin":
		// macOS: prefer XDG, fall back to ~/Library/Application Support
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			xdgPath := filepath.Join(home, ".config", AppName)
			if _, err := os.Stat(xdgPath); err == nil {
				return xdgPath
			}
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		// Linux and other Unix-like systems: follow XDG
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", AppName)
		}
	}

	// Last resort fallback
	return filepath.Join(".", "."+AppName)
}

// EnsureDirs creates the configuration directory if it does not exist.
func (p Paths) EnsureDirs() error {
	return os.MkdirAll(p.ConfigDir, 0700)
}
