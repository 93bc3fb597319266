package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xabinapal/nixproxy/internal/envblock"
	"github.com/xabinapal/nixproxy/internal/notify"
	"github.com/xabinapal/nixproxy/internal/urlstore"
)

// newSetCmd creates the set command.
func (cli *CLI) newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [proxy-url]",
		Short: "Set the nix-daemon proxy",
		Long: `Set the proxy environment for the nix-daemon and restart it.

The URL is applied to http_proxy, https_proxy, and all_proxy. When no URL is
given, the last remembered URL is re-applied.

Examples:
  # Route daemon traffic through a local proxy
  nixproxy set http://127.0.0.1:7890

  # Re-apply the remembered URL
  nixproxy set

  # Write the file but leave the daemon alone
  nixproxy set http://127.0.0.1:7890 --no-restart`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runSet(cmd.Context(), args)
		},
	}
	cmd.Flags().BoolVar(&cli.noRestartFlag, "no-restart", false, "Write the configuration without restarting the daemon")
	return cmd
}

func (cli *CLI) runSet(ctx context.Context, args []string) error {
	if err := cli.requireSupported(); err != nil {
		return err
	}

	var raw string
	fromStore := false
	if len(args) == 1 {
		raw = args[0]
	} else {
		stored, err := cli.URLs.Get()
		if errors.Is(err, urlstore.ErrNotFound) {
			return errors.New("no proxy URL given and none remembered; run 'nixproxy set <url>' first")
		}
		if err != nil {
			return err
		}
		raw = stored
		fromStore = true
	}

	cfg, err := envblock.FromURL(raw)
	if err != nil {
		return err
	}

	// Remember the URL before any elevation so the entry lands in the
	// invoking user's keyring, not root's.
	if !fromStore && cli.Config.RememberURL {
		if err := cli.URLs.Set(raw); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not remember proxy URL: %v\n", err)
		}
	}

	if done, code, err := cli.ensureRoot(ctx, cli.elevatedArgs("set", raw)); done {
		return cli.finishElevated(code, err)
	}

	if err := cli.envFile().Apply(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "Proxy for nix-daemon set to %s\n", raw)

	return cli.restartAfterChange(ctx, raw)
}

// restartAfterChange restarts the daemon after a successful write. A restart
// failure is reported as a separate fact from the write, which already
// succeeded and is not rolled back.
func (cli *CLI) restartAfterChange(ctx context.Context, appliedURL string) error {
	if cli.noRestartFlag || !cli.Config.Daemon.Restart {
		fmt.Fprintln(cli.stdout, "Daemon restart skipped; the change takes effect on the next restart.")
		return nil
	}

	notifier := notify.New(cli.Config.Notifications)

	if err := cli.controller().Restart(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Configuration saved, but the daemon was not restarted.")
		_ = notifier.NotifyRestartFailed(err)
		return err
	}
	fmt.Fprintln(cli.stdout, "nix-daemon restarted.")

	if appliedURL != "" {
		_ = notifier.NotifyApplied(appliedURL)
	} else {
		_ = notifier.NotifyCleared()
	}
	return nil
}
