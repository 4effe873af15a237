package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/workbook"
)

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a legacy workbook into the cache",
		Long: `Convert an .xls or .xlsb workbook to .xlsx in the cache directory, or
report the existing converted copy. Every sheet is converted and every cell
keeps its address. Modern workbooks are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0])
		},
	}
}

func runConvert(cmd *cobra.Command, file string) error {
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
	fmt.Fprintln(cmd.OutOrStdout(), modern.Path)
	return nil
}
