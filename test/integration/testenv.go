//go:build integration

// Package integration provides integration tests for nixproxy. The tests run
// the built binary against temporary daemon files, so they never touch the
// real nix-daemon configuration and never need root.
package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestEnv holds an isolated environment for one binary invocation: a temp
// config dir, a file-based keyring, and a temp daemon file. The generated
// config disables restarts so no service manager is required.
type TestEnv struct {
	ConfigDir  string
	KeyringDir string
	TargetPath string
}

// NewTestEnv creates an isolated environment managing a temp drop-in (or
// plist on macOS).
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	env := &TestEnv{
		ConfigDir:  filepath.Join(tmpDir, "config"),
		KeyringDir: filepath.Join(tmpDir, "keyring"),
	}
	for _, dir := range []string{env.ConfigDir, env.KeyringDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	var pathKey string
	if runtime.GOOS == "darwin" {
		env.TargetPath = filepath.Join(tmpDir, "org.nixos.nix-daemon.plist")
		pathKey = "plist_path"
	} else {
		env.TargetPath = filepath.Join(tmpDir, "nix-daemon.service.d", "override.conf")
		pathKey = "drop_in_path"
	}

	configContent := "daemon:\n" +
		"  " + pathKey + ": " + env.TargetPath + "\n" +
		"  restart: false\n"
	configFile := filepath.Join(env.ConfigDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return env
}

// SkipIfUnsupported skips the test on operating systems nixproxy does not
// manage.
func (e *TestEnv) SkipIfUnsupported(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" {
		t.Skipf("nixproxy does not manage the nix-daemon on %s", runtime.GOOS)
	}
}

// NixproxyBinaryPath returns the path to the nixproxy binary.
func NixproxyBinaryPath(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("NIXPROXY_TEST_BIN"); path != "" {
		return path
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get caller information")
	}

	// Go up from test/integration to the project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	binaryPath := filepath.Join(projectRoot, "bin", "nixproxy")

	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Fatalf("nixproxy binary not found at %s - run 'make build' first", binaryPath)
	}

	return binaryPath
}

// Run executes the nixproxy binary with args inside the isolated environment.
// --no-elevate is always appended so a failed permission check surfaces as an
// error instead of a sudo prompt.
func (e *TestEnv) Run(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.CommandContext(ctx, NixproxyBinaryPath(t), append(args, "--no-elevate")...)
	cmd.Env = append(os.Environ(),
		"NIXPROXY_CONFIG_DIR="+e.ConfigDir,
		"NIXPROXY_TEST_KEYRING_DIR="+e.KeyringDir,
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
