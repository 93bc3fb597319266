// Package envfile reads and rewrites the nix-daemon startup configuration on
// disk. It owns only the managed proxy block; every other byte in the file is
// preserved verbatim. Writes are atomic: the full content goes to a temporary
// file in the same directory which is then renamed over the original, so a
// crash mid-write never leaves a truncated file behind.
//
// Known limitation: concurrent invocations are not serialized. Two processes
// racing through the read-modify-write cycle can lose one of the updates.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xabinapal/nixproxy/internal/envblock"
	"github.com/xabinapal/nixproxy/internal/platform"
)

// Default locations of the daemon configuration managed on each platform.
const (
	// LaunchdPlistPath is the nix-daemon launch descriptor installed by Nix.
	LaunchdPlistPath = "/Library/LaunchDaemons/org.nixos.nix-daemon.plist"
	// SystemdDropInPath is the drop-in override layered onto
	// nix-daemon.service without touching the unit Nix installs.
	SystemdDropInPath = "/etc/systemd/system/nix-daemon.service.d/override.conf"
)

// launchdSkeleton is written when no nix-daemon plist exists yet. It carries
// only the daemon label; the full descriptor is installed by Nix itself.
const launchdSkeleton = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>org.nixos.nix-daemon</string>
</dict>
</plist>
`

// DefaultPath returns the configuration file nixproxy manages on p, or the
// empty string when p is unsupported.
func DefaultPath(p platform.Platform) string {
	switch p {
	case platform.Darwin:
		return LaunchdPlistPath
	case platform.Linux:
		return SystemdDropInPath
	default:
		return ""
	}
}

// File is a handle to the daemon configuration file. Every operation reads
// the file fresh and writes it back whole; no contents are cached between
// calls, so each command invocation observes the current on-disk state.
type File struct {
	Path     string
	Platform platform.Platform
}

// New returns a handle for the configuration file at path.
func New(path string, p platform.Platform) *File {
	return &File{Path: path, Platform: p}
}

// Read returns the proxy block currently stored in the file, or nil when the
// file or the block is absent.
func (f *File) Read() (*envblock.ProxyConfig, error) {
	text, exists, err := f.read()
	if err != nil || !exists {
		return nil, err
	}
	return envblock.Decode(text, f.Platform)
}

// Apply inserts, replaces, or (when cfg is nil) removes the managed block and
// writes the file back atomically. Removing from an absent file is a no-op.
// On Linux the drop-in is deleted outright when the block was its only
// content; the macOS plist is never deleted.
func (f *File) Apply(cfg *envblock.ProxyConfig) error {
	if !f.Platform.Supported() {
		return platform.ErrUnsupported
	}

	text, exists, err := f.read()
	if err != nil {
		return err
	}
	if !exists {
		if cfg == nil {
			return nil
		}
		text = f.skeleton()
	}

	patched, err := envblock.Patch(text, cfg, f.Platform)
	if err != nil {
		return fmt.Errorf("patch %s: %w", f.Path, err)
	}
	if patched == text && exists {
		return nil
	}

	if patched == "" && f.Platform == platform.Linux {
		return f.remove()
	}
	return f.write(patched)
}

// read returns the current file content and whether the file exists.
func (f *File) read() (string, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return string(data), true, nil
}

// skeleton returns the minimal base template for a missing file.
func (f *File) skeleton() string {
	if f.Platform == platform.Darwin {
		return launchdSkeleton
	}
	// A missing drop-in starts from nothing; Patch adds the [Service]
	// section itself.
	return ""
}

// write replaces the file content atomically, creating parent directories as
// needed.
func (f *File) write(text string) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := os.Chmod(tmpPath, f.mode()); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}

	// The nix installer leaves the plist read-only; lift that before the
	// rename so an existing file does not block it on some filesystems.
	if f.Platform == platform.Darwin {
		if err := os.Chmod(f.Path, 0644); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		// Put the read-only mode back on the still-live plist.
		if f.Platform == platform.Darwin {
			_ = os.Chmod(f.Path, f.mode())
		}
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}

// mode returns the permission bits the platform expects on the file: the nix
// installer keeps the plist at 0444, systemd drop-ins are plain 0644.
func (f *File) mode() fs.FileMode {
	if f.Platform == platform.Darwin {
		return 0444
	}
	return 0644
}

// remove deletes the drop-in file, tolerating its absence. The containing
// directory is left in place.
func (f *File) remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.Path, err)
	}
	return nil
}
