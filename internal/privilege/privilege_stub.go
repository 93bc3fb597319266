//go:build !darwin && !linux

package privilege

import (
	"context"
	"errors"
)

// IsRoot reports true on unsupported platforms so callers never attempt
// elevation; the platform check aborts the command first.
func IsRoot() bool {
	return true
}

// Rerun is not available on this platform.
func Rerun(ctx context.Context, args []string) (int, error) {
	return 1, errors.New("privilege elevation is not supported on this platform")
}
