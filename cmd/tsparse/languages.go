package main

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/grammars"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "languages",
		Aliases: []string{"ls"},
		Short:   "List built-in languages and their parse support",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data [][]string
			for _, report := range grammars.AuditParseSupport() {
				var extensions string
				if entry, ok := grammars.Lookup(report.Name); ok {
					extensions = strings.Join(entry.Extensions, ",")
				}
				scanner := "-"
				if report.RequiresExternalScanner {
					scanner = "external"
				}
				data = append(data, []string{
					report.Name,
					extensions,
					string(report.Backend),
					strconv.FormatUint(uint64(report.LanguageVersion), 10),
					strconv.FormatUint(uint64(report.StateCount), 10),
					strconv.Itoa(report.ConflictEntries),
					scanner,
					report.Reason,
				})
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"NAME", "EXTENSIONS", "BACKEND", "VERSION", "STATES", "CONFLICTS", "SCANNER", "STATUS"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()
			return nil
		},
	}
}
