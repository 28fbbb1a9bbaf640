package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/langfile"
)

func newGrammarCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "grammar <language>",
		Short: "Write a built-in language as a grammar descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := builtinLanguage(args[0])
			if err != nil {
				return err
			}
			f, err := langfile.FromLanguage(lang)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			var buf bytes.Buffer
			if err := langfile.Encode(&buf, f); err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(output, buf.Bytes(), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
