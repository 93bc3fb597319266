package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xabinapal/nixproxy/internal/envfile"
	"github.com/xabinapal/nixproxy/internal/platform"
	"github.com/xabinapal/nixproxy/internal/service"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Daemon.Restart {
		t.Error("daemon restart should default to enabled")
	}
	if !cfg.RememberURL {
		t.Error("remember_url should default to enabled")
	}
	if cfg.Notifications.Enabled {
		t.Error("notifications should default to disabled")
	}
	if !cfg.Notifications.OnApply || !cfg.Notifications.OnFailure {
		t.Error("notification triggers should default to enabled")
	}
	if cfg.Daemon.PlistPath != "" || cfg.Daemon.DropInPath != "" || cfg.Daemon.Unit != "" {
		t.Error("path and unit overrides should default to empty")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if !cfg.Daemon.Restart || !cfg.RememberURL {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `daemon:
  plist_path: /tmp/test.plist
  unit: nix-daemon-test
  restart: false
notifications:
  enabled: true
remember_url: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.Daemon.PlistPath != "/tmp/test.plist" {
		t.Errorf("PlistPath = %q", cfg.Daemon.PlistPath)
	}
	if cfg.Daemon.Unit != "nix-daemon-test" {
		t.Errorf("Unit = %q", cfg.Daemon.Unit)
	}
	if cfg.Daemon.Restart {
		t.Error("restart override was not applied")
	}
	if cfg.RememberURL {
		t.Error("remember_url override was not applied")
	}
	if !cfg.Notifications.Enabled {
		t.Error("notifications enable was not applied")
	}
	// Fields absent from the file keep their defaults.
	if !cfg.Notifications.OnApply || !cfg.Notifications.OnFailure {
		t.Error("absent notification triggers should keep defaults")
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("daemon: [not a mapping"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestTargetPath(t *testing.T) {
	cfg := Default()
	if got := cfg.TargetPath(platform.Darwin); got != envfile.LaunchdPlistPath {
		t.Errorf("TargetPath(Darwin) = %q", got)
	}
	if got := cfg.TargetPath(platform.Linux); got != envfile.SystemdDropInPath {
		t.Errorf("TargetPath(Linux) = %q", got)
	}

	cfg.Daemon.PlistPath = "/tmp/custom.plist"
	cfg.Daemon.DropInPath = "/tmp/custom.conf"
	if got := cfg.TargetPath(platform.Darwin); got != "/tmp/custom.plist" {
		t.Errorf("TargetPath(Darwin) override = %q", got)
	}
	if got := cfg.TargetPath(platform.Linux); got != "/tmp/custom.conf" {
		t.Errorf("TargetPath(Linux) override = %q", got)
	}
}

func TestUnitName(t *testing.T) {
	cfg := Default()
	if got := cfg.UnitName(); got != service.DefaultUnit {
		t.Errorf("UnitName() = %q, want %q", got, service.DefaultUnit)
	}

	cfg.Daemon.Unit = "nix-daemon-test"
	if got := cfg.UnitName(); got != "nix-daemon-test" {
		t.Errorf("UnitName() override = %q", got)
	}
}
