// Package service restarts the nix-daemon through the platform service
// manager so a configuration change takes effect.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xabinapal/nixproxy/internal/envfile"
	"github.com/xabinapal/nixproxy/internal/platform"
)

// ErrRestartFailed is returned when the service manager could not reload the
// daemon. It is distinct from file errors so callers can report a saved
// configuration that is not yet active.
var ErrRestartFailed = errors.New("daemon restart failed")

// DefaultUnit is the systemd unit restarted on Linux.
const DefaultUnit = "nix-daemon"

// LaunchdLabel is the launchd job label of the nix-daemon on macOS.
const LaunchdLabel = "org.nixos.nix-daemon"

// Controller reloads the nix-daemon after a configuration change.
type Controller struct {
	platform  platform.Platform
	runner    CommandRunner
	plistPath string // launch descriptor, used on Darwin
	unit      string // systemd unit, used on Linux
}

// Option configures a Controller.
type Option func(*Controller)

// WithRunner sets a custom command runner (for testing).
func WithRunner(r CommandRunner) Option {
	return func(c *Controller) { c.runner = r }
}

// WithPlistPath overrides the launch descriptor passed to launchctl.
func WithPlistPath(path string) Option {
	return func(c *Controller) { c.plistPath = path }
}

// WithUnit overrides the systemd unit name.
func WithUnit(unit string) Option {
	return func(c *Controller) { c.unit = unit }
}

// NewController creates a Controller for p.
func NewController(p platform.Platform, opts ...Option) *Controller {
	c := &Controller{
		platform:  p,
		runner:    NewCommandRunner(),
		plistPath: envfile.LaunchdPlistPath,
		unit:      DefaultUnit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ManagerBinary returns the service-manager executable the controller
// invokes.
func (c *Controller) ManagerBinary() string {
	switch c.platform {
	case platform.Darwin:
		return "launchctl"
	case platform.Linux:
		return "systemctl"
	default:
		return ""
	}
}

// Restart applies a configuration change by restarting the daemon. Fire and
// forget with error surfacing: the file write has already happened and is not
// rolled back when the restart fails.
func (c *Controller) Restart(ctx context.Context) error {
	switch c.platform {
	case platform.Darwin:
		return c.restartLaunchd(ctx)
	case platform.Linux:
		return c.restartSystemd(ctx)
	default:
		return platform.ErrUnsupported
	}
}

// restartLaunchd unloads and reloads the daemon's launch descriptor so the
// new environment takes effect.
func (c *Controller) restartLaunchd(ctx context.Context) error {
	// Unload errors are ignored: the daemon may simply not be loaded yet.
	_, _ = c.runner.Run(ctx, "launchctl", "unload", c.plistPath)

	if out, err := c.runner.Run(ctx, "launchctl", "load", c.plistPath); err != nil {
		return restartError("launchctl load", out, err)
	}
	return nil
}

// restartSystemd reloads the unit cache and restarts the daemon unit.
func (c *Controller) restartSystemd(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return restartError("systemctl daemon-reload", out, err)
	}
	if out, err := c.runner.Run(ctx, "systemctl", "restart", c.unit); err != nil {
		return restartError("systemctl restart "+c.unit, out, err)
	}
	return nil
}

// Status asks the service manager whether it knows the daemon. On Darwin the
// job may legitimately be unloaded; on Linux the unit file may be missing
// when Nix was installed without systemd integration.
func (c *Controller) Status(ctx context.Context) error {
	switch c.platform {
	case platform.Darwin:
		if out, err := c.runner.Run(ctx, "launchctl", "print", "system/"+LaunchdLabel); err != nil {
			return statusError("launchctl does not know "+LaunchdLabel, out, err)
		}
		return nil
	case platform.Linux:
		if out, err := c.runner.Run(ctx, "systemctl", "cat", c.unit); err != nil {
			return statusError("systemd does not know unit "+c.unit, out, err)
		}
		return nil
	default:
		return platform.ErrUnsupported
	}
}

// statusError wraps a failed status query, keeping whatever the command
// printed.
func statusError(msg string, out []byte, err error) error {
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return fmt.Errorf("%s: %s: %v", msg, detail, err)
	}
	return fmt.Errorf("%s: %v", msg, err)
}

// restartError wraps a failed service-manager invocation, keeping whatever
// the command printed.
func restartError(invocation string, out []byte, err error) error {
	msg := strings.TrimSpace(string(out))
	if msg != "" {
		return fmt.Errorf("%w: %s: %s: %v", ErrRestartFailed, invocation, msg, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrRestartFailed, invocation, err)
}
