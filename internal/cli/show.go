package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xabinapal/nixproxy/internal/envblock"
)

// showOutput represents the show command output for JSON.
type showOutput struct {
	Configured bool   `json:"configured"`
	HTTPProxy  string `json:"http_proxy,omitempty"`
	HTTPSProxy string `json:"https_proxy,omitempty"`
	AllProxy   string `json:"all_proxy,omitempty"`
}

// newShowCmd creates the show command.
func (cli *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current nix-daemon proxy settings",
		Long: `Show the proxy environment currently stored in the nix-daemon
configuration. Reads the file only; never restarts the daemon and never needs
root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runShow()
		},
	}
}

func (cli *CLI) runShow() error {
	if err := cli.requireSupported(); err != nil {
		return err
	}

	format, err := ParseOutputFormat(cli.outputFlag)
	if err != nil {
		return err
	}

	cfg, err := cli.envFile().Read()
	if err != nil {
		return err
	}

	out := showOutput{Configured: cfg != nil}
	if cfg != nil {
		out.HTTPProxy = cfg.HTTP
		out.HTTPSProxy = cfg.HTTPS
		out.AllProxy = cfg.All
	}

	writer := NewOutputWriter(format, cli.stdout)
	return writer.Write(out, func() {
		if cfg == nil {
			fmt.Fprintln(cli.stdout, "No proxy is currently configured.")
			return
		}
		printVar(cli, envblock.HTTPProxyVar, cfg.HTTP)
		printVar(cli, envblock.HTTPSProxyVar, cfg.HTTPS)
		printVar(cli, envblock.AllProxyVar, cfg.All)
	})
}

func printVar(cli *CLI, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(cli.stdout, "%-11s = %s\n", name, value)
}
