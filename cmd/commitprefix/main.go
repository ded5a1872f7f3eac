// Package main provides the entry point for the commitprefix CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitprefix/cmd/commitprefix/commands"
	"github.com/Sumatoshi-tech/commitprefix/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "commitprefix",
		Short: "Rewrite a commit timestamp so its id starts with a chosen prefix",
		Long: `commitprefix brute-forces the author (or committer) timestamp of the HEAD
commit until the commit id starts with the requested hex prefix.

Commands:
  search    Find a matching timestamp and rewrite HEAD
  mcp       Serve the search as an MCP tool on stdio
  schema    Print or check the JSON schema of search results`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
