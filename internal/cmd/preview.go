package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/workbook"
	"github.com/aerissecure/cellfind/xlsx"
)

// NewPreviewCommand creates the preview command
func NewPreviewCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "preview <file> <sheet> <cell>",
		Short: "Render the cells around a target as HTML",
		Long: `Render the window a jump to cell would show (20 rows by 10 columns
from the scrolled top-left corner) as a standalone HTML table with the
target highlighted. The workbook itself is not modified. Legacy workbooks
are previewed from their converted copy.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args[0], args[1], args[2], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (stdout if not specified)")

	return cmd
}

func runPreview(cmd *cobra.Command, file, sheet, cell, output string) error {
	target, err := address.Parse(cell)
	if err != nil {
		return err
	}
	ref, ok := workbook.RefFor(file)
	if !ok {
		return fmt.Errorf("%s is not a spreadsheet", file)
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	modern, err := app.Cache.EnsureModern(cmd.Context(), ref)
	if err != nil {
		return err
	}

	html, err := xlsx.Preview(modern.Path, sheet, target, app.Locator.RowMargin, app.Locator.ColMargin)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(output, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
