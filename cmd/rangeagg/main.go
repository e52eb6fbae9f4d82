// Package main provides the entry point for the rangeagg CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rangeagg/cmd/rangeagg/commands"
	"github.com/Sumatoshi-tech/rangeagg/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	globals := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "rangeagg",
		Short: "Range aggregation over segment trees",
		Long: `rangeagg builds segment trees over integer sequences and answers
range queries with point updates.

Commands:
  demo      Run the built-in min/max/sum demonstration
  run       Execute a query script`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "config file (default .rangeagg.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewDemoCommand())
	rootCmd.AddCommand(commands.NewRunCommand(globals))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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
