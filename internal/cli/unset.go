package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newUnsetCmd creates the unset command.
func (cli *CLI) newUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset",
		Short: "Remove the nix-daemon proxy settings",
		Long: `Remove the proxy environment from the nix-daemon configuration and
restart the daemon. Running unset when no proxy is configured is a no-op.

The remembered URL is kept, so 'nixproxy set' without an argument can restore
the proxy later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runUnset(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&cli.noRestartFlag, "no-restart", false, "Write the configuration without restarting the daemon")
	return cmd
}

func (cli *CLI) runUnset(ctx context.Context) error {
	if err := cli.requireSupported(); err != nil {
		return err
	}

	// Peek before elevating: an already-clean file needs neither root nor a
	// daemon restart.
	current, err := cli.envFile().Read()
	if err != nil {
		return err
	}
	if current == nil {
		fmt.Fprintln(cli.stdout, "No proxy was configured; nothing to remove.")
		return nil
	}

	if done, code, err := cli.ensureRoot(ctx, cli.elevatedArgs("unset", "")); done {
		return cli.finishElevated(code, err)
	}

	if err := cli.envFile().Apply(nil); err != nil {
		return err
	}
	fmt.Fprintln(cli.stdout, "Proxy settings for nix-daemon removed.")

	return cli.restartAfterChange(ctx, "")
}
