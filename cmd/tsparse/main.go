// Command tsparse parses files with the built-in grammars or with grammar
// descriptor files and prints their syntax trees.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/internal/envconfig"
	"github.com/odvcencio/sitter/internal/logutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tsparse",
		Short:        "Table-driven incremental parser runtime",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
	}

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newGrammarCmd())
	return rootCmd
}
