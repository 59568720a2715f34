// Package cli is the basejump-demo command line: it provisions a client end to end and asks
// the configured data source one question.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "v0.1.0-dev"

type rootOptions struct {
	configFile string
	output     string
}

// NewRootCmd creates the root command with its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "basejump-demo",
		Short: "Provision a Basejump client and chat with its database",
		Long: `basejump-demo creates a client, a team, a user and a database connection in the
metadata store, indexes the database, opens a chat and asks it a question.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to a TOML or YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
