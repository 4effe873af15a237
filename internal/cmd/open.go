package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/workbook"
)

// NewOpenCommand creates the open command
func NewOpenCommand() *cobra.Command {
	var noLaunch bool

	cmd := &cobra.Command{
		Use:   "open <file> <sheet> <cell>",
		Short: "Select a cell in a workbook and open it",
		Long: `Make cell the active cell of sheet, scroll it into view and open the
workbook in its default application. Legacy workbooks are converted first,
after confirmation.

Example:
  cellfind open ./reports/q3.xls Summary D42`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, args[0], args[1], args[2], noLaunch)
		},
	}

	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "Update the workbook without opening it")

	return cmd
}

func runOpen(cmd *cobra.Command, file, sheet, cell string, noLaunch bool) error {
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
	if noLaunch {
		app.Launcher = nil
	}

	opened, err := app.Open(cmd.Context(), ref, sheet, target)
	if err != nil {
		return err
	}
	out := opened.Outcome
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s!%s (view from %s)\n", out.Path, out.Sheet, out.Active, out.TopLeft)
	return nil
}
