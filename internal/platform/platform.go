// Package platform identifies which daemon configuration strategy applies to
// the running operating system.
package platform

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned when nixproxy does not know how to manage the
// nix-daemon on the current operating system.
var ErrUnsupported = errors.New("unsupported operating system")

// Platform selects one of the supported daemon configuration formats.
type Platform int

const (
	// Unsupported is any operating system nixproxy cannot manage.
	Unsupported Platform = iota
	// Darwin manages a launchd property list.
	Darwin
	// Linux manages a systemd drop-in unit.
	Linux
)

// Detect returns the platform of the running system. Pure inspection, no side
// effects.
func Detect() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to a Platform.
func FromGOOS(goos string) Platform {
	switch goos {
	case "darwin":
		return Darwin
	case "linux":
		return Linux
	default:
		return Unsupported
	}
}

// Supported reports whether nixproxy can manage the daemon on p.
func (p Platform) Supported() bool {
	return p == Darwin || p == Linux
}

// String returns the GOOS-style name of the platform.
func (p Platform) String() string {
	switch p {
	case Darwin:
		return "darwin"
	case Linux:
		return "linux"
	default:
		return "unsupported"
	}
}

// ServiceManager returns a human-readable name for the service system.
func (p Platform) ServiceManager() string {
	switch p {
	case Darwin:
		return "launchd"
	case Linux:
		return "systemd"
	default:
		return "unknown"
	}
}
