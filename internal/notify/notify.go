// Package notify provides desktop notification support for nixproxy. When a
// change is applied through pkexec the outcome is detached from the invoking
// terminal, so an optional notification closes that gap.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/xabinapal/nixproxy/internal/config"
)

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// NotifyApplied reports that the proxy was set to url.
	NotifyApplied(url string) error
	// NotifyCleared reports that the proxy settings were removed.
	NotifyCleared() error
	// NotifyRestartFailed reports that the configuration was saved but the
	// daemon restart failed.
	NotifyRestartFailed(err error) error
}

// Backend delivers one rendered notification. critical selects the system's
// alert presentation, used for restart failures.
type Backend interface {
	Push(title, message string, critical bool) error
}

// desktopBackend delivers through the desktop notification service.
type desktopBackend struct{}

func (desktopBackend) Push(title, message string, critical bool) error {
	if critical {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}

// Option configures a Notifier.
type Option func(*notifier)

// WithBackend sets a custom notification backend (for testing).
func WithBackend(backend Backend) Option {
	return func(n *notifier) {
		n.backend = backend
	}
}

// New creates a Notifier honoring cfg. A disabled configuration yields a
// notifier whose methods do nothing.
func New(cfg config.NotificationConfig, opts ...Option) Notifier {
	n := &notifier{
		onApply:   cfg.Enabled && cfg.OnApply,
		onFailure: cfg.Enabled && cfg.OnFailure,
		backend:   desktopBackend{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// notifier gates the configured triggers in front of a Backend.
type notifier struct {
	onApply   bool
	onFailure bool
	backend   Backend
}

func (n *notifier) NotifyApplied(url string) error {
	if !n.onApply {
		return nil
	}
	return n.backend.Push("nixproxy: Proxy Set",
		fmt.Sprintf("nix-daemon proxy set to %s and daemon restarted.", url), false)
}

func (n *notifier) NotifyCleared() error {
	if !n.onApply {
		return nil
	}
	return n.backend.Push("nixproxy: Proxy Removed",
		"nix-daemon proxy settings removed and daemon restarted.", false)
}

func (n *notifier) NotifyRestartFailed(err error) error {
	if !n.onFailure {
		return nil
	}
	return n.backend.Push("nixproxy: Restart Failed",
		fmt.Sprintf("Configuration was saved but the daemon was not restarted.\nError: %v", err), true)
}
