package urlstore

import (
	"errors"
	"fmt"
	"strings"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used for the keyring entry.
	keyringService = "nixproxy"
	// keyringAccount is the account name of the single remembered URL.
	keyringAccount = "proxy-url"
)

var (
	// ErrKeyringUnavailable is returned when no secure keyring is available.
	ErrKeyringUnavailable = errors.New("secure keyring is not available on this system")
	// ErrKeyringAccessDenied is returned when access to the keyring is denied.
	ErrKeyringAccessDenied = errors.New("access to keyring denied")
)

// osKeyring implements Store using the OS keyring.
type osKeyring struct{}

func (k *osKeyring) Set(url string) error {
	if url == "" {
		return errors.New("url cannot be empty")
	}
	if err := gokeyring.Set(keyringService, keyringAccount, url); err != nil {
		return wrapKeyringError(err, "failed to store proxy URL")
	}
	return nil
}

func (k *osKeyring) Get() (string, error) {
	url, err := gokeyring.Get(keyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", wrapKeyringError(err, "failed to retrieve proxy URL")
	}
	return url, nil
}

func (k *osKeyring) Delete() error {
	err := gokeyring.Delete(keyringService, keyringAccount)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return wrapKeyringError(err, "failed to delete proxy URL")
	}
	return nil
}

// wrapKeyringError wraps a keyring error with context, mapping it onto the
// package's sentinel errors where the message allows.
func wrapKeyringError(err error, context string) error {
	errStr := err.Error()

	if containsAny(errStr, "denied", "permission", "not allowed", "unauthorized") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringAccessDenied, context, err)
	}
	if containsAny(errStr, "no keyring", "unavailable", "secret service", "dbus") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringUnavailable, context, err)
	}
	return fmt.Errorf("%s: %w", context, err)
}

// containsAny reports whether s contains any of the substrings, ignoring
// case.
func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
