package service

import (
	"context"
	"os/exec"
)

// CommandRunner executes service-manager commands. It exists so tests can
// observe the exact invocations without a live launchctl or systemctl.
type CommandRunner interface {
	// LookPath finds the executable in PATH.
	LookPath(file string) (string, error)
	// Run executes the command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner is the real implementation using os/exec.
type execRunner struct{}

// NewCommandRunner creates a runner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 - name and args are fixed service-manager invocations
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
