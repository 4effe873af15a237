package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/report"
)

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "search <folder> <keyword>",
		Short: "Search a folder of workbooks for a keyword",
		Long: `Search every workbook directly inside a folder for cells containing
keyword, ignoring case. Subfolders are not searched. The first column of
every sheet is skipped.

Examples:
  # Aligned table on the terminal
  cellfind search ./reports invoice

  # Markdown report to a file
  cellfind search ./reports invoice --format markdown --output matches.md

Supported formats: text, markdown, html, json, csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], args[1], format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.Text), "Output format (text|markdown|html|json|csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (stdout if not specified)")

	return cmd
}

func runSearch(cmd *cobra.Command, folder, keyword, format, output string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	res, err := app.Find(folder, keyword).Wait(cmd.Context())
	if err != nil {
		return err
	}

	var writer io.Writer = cmd.OutOrStdout()
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}
	return report.Write(writer, f, res)
}
