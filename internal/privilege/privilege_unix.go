//go:build darwin || linux

// Package privilege re-executes the current process with root privileges for
// commands that write to system paths.
package privilege

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// IsRoot reports whether the process already runs with root privileges.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Rerun re-executes the current binary with elevated privileges, passing args
// through unchanged and wiring the standard streams to the child. It prefers
// pkexec when available so desktop sessions get a graphical prompt, falling
// back to sudo. The child's exit code is returned; a non-zero code is not an
// error here, the caller decides how to surface it.
func Rerun(ctx context.Context, args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 1, fmt.Errorf("locate executable: %w", err)
	}

	tool := "sudo"
	if _, err := exec.LookPath("pkexec"); err == nil {
		tool = "pkexec"
	}

	fmt.Fprintf(os.Stderr, "Root privileges required, re-running with %s...\n", tool)

	// #nosec G204 - tool is sudo or pkexec, exe is our own binary
	cmd := exec.CommandContext(ctx, tool, append([]string{exe}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("privilege elevation failed: %w", err)
	}
	return 0, nil
}
