package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported subtitle formats and translation styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Format", "Extensions"})
			for _, f := range subtitle.Formats() {
				tw.AppendRow(table.Row{f.String(), strings.Join(f.Extensions(), ", ")})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tw.Render())

			styles := make([]string, 0, len(translator.Styles()))
			for _, s := range translator.Styles() {
				styles = append(styles, string(s))
			}
			fmt.Fprintf(out, "Styles: %s\n", strings.Join(styles, ", "))
			return nil
		},
	}
}
