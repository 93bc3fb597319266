// Package urlstore remembers the last proxy URL applied so `set` without an
// argument can re-apply it. Proxy URLs may embed credentials, so the primary
// backend is the OS keyring rather than a plaintext file.
package urlstore

import (
	"errors"
	"os"
)

const (
	// TestKeyringEnvVar is the environment variable that, when set to a
	// directory path, selects the file-based store instead of the OS
	// keyring. Intended for tests only.
	TestKeyringEnvVar = "NIXPROXY_TEST_KEYRING_DIR"
)

// ErrNotFound is returned when no proxy URL has been remembered.
var ErrNotFound = errors.New("no proxy URL remembered")

// Store persists the remembered proxy URL.
type Store interface {
	// Set remembers url.
	Set(url string) error
	// Get returns the remembered URL, or ErrNotFound.
	Get() (string, error)
	// Delete forgets the remembered URL; absence is not an error.
	Delete() error
}

// DefaultStore returns the store for the current environment. When
// NIXPROXY_TEST_KEYRING_DIR is set, a file-based store is used so tests run
// without touching the OS keyring.
func DefaultStore() Store {
	if dir := os.Getenv(TestKeyringEnvVar); dir != "" {
		if fs, err := NewFileStore(dir); err == nil {
			return fs
		}
	}
	return &osKeyring{}
}
