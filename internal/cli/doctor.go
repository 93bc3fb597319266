package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/xabinapal/nixproxy/internal/config"
	"github.com/xabinapal/nixproxy/internal/platform"
	"github.com/xabinapal/nixproxy/internal/service"
	"github.com/xabinapal/nixproxy/internal/urlstore"
)

// CheckResult represents the result of a diagnostic check.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// CheckStatus represents the status of a diagnostic check.
type CheckStatus int

const (
	// CheckOK indicates the check passed.
	CheckOK CheckStatus = iota
	// CheckWarning indicates a non-critical issue.
	CheckWarning
	// CheckError indicates a critical failure.
	CheckError
)

// String returns the status name.
func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "OK"
	case CheckWarning:
		return "WARN"
	case CheckError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Icon returns the status icon for display.
func (s CheckStatus) Icon() string {
	switch s {
	case CheckOK:
		return "[OK]"
	case CheckWarning:
		return "[!!]"
	case CheckError:
		return "[XX]"
	default:
		return "[??]"
	}
}

// MarshalJSON implements json.Marshaler.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DoctorOutput represents the doctor command output for JSON.
type DoctorOutput struct {
	Checks      []CheckResult `json:"checks"`
	HasErrors   bool          `json:"has_errors"`
	HasWarnings bool          `json:"has_warnings"`
}

// newDoctorCmd creates the doctor command.
func (cli *CLI) newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify and troubleshoot common issues.

The doctor command checks:
  - Platform support
  - The daemon configuration file
  - The service-manager binary
  - Whether the service manager knows the daemon
  - Privileges
  - The remembered proxy URL

Use --verbose for suggested fixes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}

			results := cli.runDiagnostics(cmd.Context())

			hasErrors := false
			hasWarnings := false
			for _, r := range results {
				if r.Status == CheckError {
					hasErrors = true
				}
				if r.Status == CheckWarning {
					hasWarnings = true
				}
			}

			output := DoctorOutput{
				Checks:      results,
				HasErrors:   hasErrors,
				HasWarnings: hasWarnings,
			}

			writer := NewOutputWriter(format, cli.stdout)
			writeErr := writer.Write(output, func() {
				fmt.Fprintln(cli.stdout, "nixproxy Diagnostics")
				fmt.Fprintln(cli.stdout, "====================")
				fmt.Fprintln(cli.stdout)

				for _, r := range results {
					fmt.Fprintf(cli.stdout, "%s %s", r.Status.Icon(), r.Name)
					if r.Message != "" {
						fmt.Fprintf(cli.stdout, ": %s", r.Message)
					}
					fmt.Fprintln(cli.stdout)

					if (r.Status == CheckError || r.Status == CheckWarning) && r.Fix != "" && verbose {
						fmt.Fprintf(cli.stdout, "      -> %s\n", r.Fix)
					}
				}

				fmt.Fprintln(cli.stdout)
				if hasErrors {
					fmt.Fprintln(cli.stdout, "Some checks failed. Run with --verbose for suggested fixes.")
				} else if hasWarnings {
					fmt.Fprintln(cli.stdout, "All critical checks passed with some warnings.")
				} else {
					fmt.Fprintln(cli.stdout, "All checks passed!")
				}
			})

			if writeErr != nil {
				return writeErr
			}

			if hasErrors {
				return fmt.Errorf("diagnostics failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Show suggested fixes")

	return cmd
}

func (cli *CLI) runDiagnostics(ctx context.Context) []CheckResult {
	return []CheckResult{
		cli.checkPlatform(),
		cli.checkToolConfig(),
		cli.checkDaemonFile(),
		cli.checkServiceManager(),
		cli.checkDaemonUnit(ctx),
		cli.checkPrivileges(),
		cli.checkRememberedURL(),
	}
}

func (cli *CLI) checkPlatform() CheckResult {
	if !cli.Platform.Supported() {
		return CheckResult{
			Name:    "Platform",
			Status:  CheckError,
			Message: "this operating system is not supported",
			Fix:     "nixproxy manages the nix-daemon on macOS (launchd) and Linux (systemd) only",
		}
	}
	return CheckResult{
		Name:    "Platform",
		Status:  CheckOK,
		Message: fmt.Sprintf("%s (%s)", cli.Platform, cli.Platform.ServiceManager()),
	}
}

func (cli *CLI) checkToolConfig() CheckResult {
	path := config.GetPaths().ConfigFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:    "Configuration file",
			Status:  CheckOK,
			Message: "not present, using defaults",
		}
	}
	if _, err := config.LoadFrom(path); err != nil {
		return CheckResult{
			Name:    "Configuration file",
			Status:  CheckError,
			Message: err.Error(),
			Fix:     "fix or remove " + path,
		}
	}
	return CheckResult{
		Name:    "Configuration file",
		Status:  CheckOK,
		Message: path,
	}
}

func (cli *CLI) checkDaemonFile() CheckResult {
	if !cli.Platform.Supported() {
		return CheckResult{Name: "Daemon configuration", Status: CheckWarning, Message: "skipped on unsupported platform"}
	}

	file := cli.envFile()
	cfg, err := file.Read()
	if err != nil {
		return CheckResult{
			Name:    "Daemon configuration",
			Status:  CheckError,
			Message: err.Error(),
			Fix:     "check permissions and contents of " + file.Path,
		}
	}
	if cfg == nil {
		return CheckResult{
			Name:    "Daemon configuration",
			Status:  CheckOK,
			Message: fmt.Sprintf("%s (no proxy configured)", file.Path),
		}
	}
	return CheckResult{
		Name:    "Daemon configuration",
		Status:  CheckOK,
		Message: fmt.Sprintf("%s (proxy: %s)", file.Path, cfg.HTTP),
	}
}

func (cli *CLI) checkServiceManager() CheckResult {
	binary := cli.controller().ManagerBinary()
	if binary == "" {
		return CheckResult{Name: "Service manager", Status: CheckWarning, Message: "skipped on unsupported platform"}
	}
	if _, err := cli.Runner.LookPath(binary); err != nil {
		return CheckResult{
			Name:    "Service manager",
			Status:  CheckError,
			Message: binary + " not found in PATH",
			Fix:     "set and unset will save the file but cannot restart the daemon",
		}
	}
	return CheckResult{
		Name:    "Service manager",
		Status:  CheckOK,
		Message: binary,
	}
}

func (cli *CLI) checkDaemonUnit(ctx context.Context) CheckResult {
	if !cli.Platform.Supported() {
		return CheckResult{Name: "Daemon unit", Status: CheckWarning, Message: "skipped on unsupported platform"}
	}

	if err := cli.controller().Status(ctx); err != nil {
		return CheckResult{
			Name:    "Daemon unit",
			Status:  CheckWarning,
			Message: err.Error(),
			Fix:     "the daemon may not be installed or loaded; a restart after set/unset will fail",
		}
	}

	msg := "unit " + cli.Config.UnitName()
	if cli.Platform == platform.Darwin {
		msg = "job " + service.LaunchdLabel
	}
	return CheckResult{
		Name:    "Daemon unit",
		Status:  CheckOK,
		Message: msg + " is known to " + cli.Platform.ServiceManager(),
	}
}

func (cli *CLI) checkPrivileges() CheckResult {
	if cli.isRoot() {
		return CheckResult{
			Name:    "Privileges",
			Status:  CheckOK,
			Message: "running as root",
		}
	}
	return CheckResult{
		Name:    "Privileges",
		Status:  CheckWarning,
		Message: "not running as root",
		Fix:     "set and unset re-execute through pkexec or sudo automatically",
	}
}

func (cli *CLI) checkRememberedURL() CheckResult {
	url, err := cli.URLs.Get()
	if errors.Is(err, urlstore.ErrNotFound) {
		return CheckResult{
			Name:    "Remembered URL",
			Status:  CheckOK,
			Message: "none stored",
		}
	}
	if err != nil {
		return CheckResult{
			Name:    "Remembered URL",
			Status:  CheckWarning,
			Message: err.Error(),
			Fix:     "the keyring is unavailable; 'nixproxy set' will always need an explicit URL",
		}
	}
	return CheckResult{
		Name:    "Remembered URL",
		Status:  CheckOK,
		Message: url,
	}
}
