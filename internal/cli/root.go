// Package cli provides the command-line interface for nixproxy.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/xabinapal/nixproxy/internal/config"
	"github.com/xabinapal/nixproxy/internal/envfile"
	"github.com/xabinapal/nixproxy/internal/platform"
	"github.com/xabinapal/nixproxy/internal/privilege"
	"github.com/xabinapal/nixproxy/internal/service"
	"github.com/xabinapal/nixproxy/internal/urlstore"
)

// CLI holds the application state for the CLI.
type CLI struct {
	Config   *config.Config
	Platform platform.Platform
	URLs     urlstore.Store
	Runner   service.CommandRunner

	rootCmd *cobra.Command
	stdout  io.Writer

	// Privilege hooks, replaceable in tests.
	isRoot func() bool
	rerun  func(ctx context.Context, args []string) (int, error)

	// Flags
	outputFlag    string
	noElevateFlag bool
	noRestartFlag bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{
		Platform: platform.Detect(),
		URLs:     urlstore.DefaultStore(),
		Runner:   service.NewCommandRunner(),
		stdout:   os.Stdout,
		isRoot:   privilege.IsRoot,
		rerun:    privilege.Rerun,
	}

	cli.rootCmd = &cobra.Command{
		Use:   "nixproxy [command]",
		Short: "nixproxy - proxy manager for the Nix build daemon",
		Long: `nixproxy sets, removes, and shows the proxy environment used by the
nix-daemon. On macOS it manages the EnvironmentVariables dictionary inside the
daemon's launchd property list; on Linux it manages a systemd drop-in under
nix-daemon.service.d. After a change the daemon is restarted so the new
environment takes effect.

Changing the daemon configuration requires root; set and unset re-execute
themselves through pkexec or sudo when needed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Global flags
	cli.rootCmd.PersistentFlags().StringVarP(&cli.outputFlag, "output", "o", "text", "Output format (text, json)")
	cli.rootCmd.PersistentFlags().BoolVar(&cli.noElevateFlag, "no-elevate", false, "Never re-execute with sudo or pkexec")

	cli.addCommands()

	return cli
}

// addCommands adds all subcommands to the root command.
func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newSetCmd(),
		cli.newUnsetCmd(),
		cli.newShowCmd(),
		cli.newDoctorCmd(),
		cli.newVersionCmd(),
		cli.newCompletionCmd(),
	)
}

// initialize loads configuration and sets up the CLI.
func (cli *CLI) initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.Config = cfg
	return nil
}

// Execute runs the CLI.
func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// requireSupported aborts commands that would edit a configuration format we
// do not know.
func (cli *CLI) requireSupported() error {
	if !cli.Platform.Supported() {
		return fmt.Errorf("%w: %s", platform.ErrUnsupported, runtime.GOOS)
	}
	return nil
}

// envFile returns the handle to the daemon configuration managed on this
// platform. A fresh handle per command keeps state on disk only.
func (cli *CLI) envFile() *envfile.File {
	return envfile.New(cli.Config.TargetPath(cli.Platform), cli.Platform)
}

// controller returns the service controller for this platform.
func (cli *CLI) controller() *service.Controller {
	opts := []service.Option{
		service.WithRunner(cli.Runner),
		service.WithUnit(cli.Config.UnitName()),
	}
	if cli.Platform == platform.Darwin {
		opts = append(opts, service.WithPlistPath(cli.Config.TargetPath(cli.Platform)))
	}
	return service.NewController(cli.Platform, opts...)
}

// ensureRoot re-executes the invocation with elevated privileges when the
// process lacks them. It reports done=true when a child process ran in our
// place and the current process should stop. args is the full rebuilt argv
// for the child, not the parent's raw os.Args: the caller has already
// resolved defaults (like the remembered URL) that the elevated child could
// not, since it runs with root's keyring and a scrubbed environment.
func (cli *CLI) ensureRoot(ctx context.Context, args []string) (done bool, code int, err error) {
	if cli.isRoot() || cli.noElevateFlag {
		return false, 0, nil
	}
	code, err = cli.rerun(ctx, args)
	return true, code, err
}

// elevatedArgs rebuilds the argv for an elevated re-exec of verb. url, when
// non-empty, is passed as an explicit argument even if the parent resolved it
// from the remembered store. Flags already parsed are re-encoded.
func (cli *CLI) elevatedArgs(verb, url string) []string {
	args := []string{verb}
	if url != "" {
		args = append(args, url)
	}
	if cli.noRestartFlag {
		args = append(args, "--no-restart")
	}
	return args
}

// finishElevated surfaces the outcome of an elevated child run.
func (cli *CLI) finishElevated(code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
