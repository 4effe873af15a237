package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/convert"
)

// NewCacheCommand creates the cache command group
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect converted workbooks",
	}
	cmd.AddCommand(newCacheListCommand())
	return cmd
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			entries, err := app.Cache.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversions recorded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), entriesTable(entries))
			return nil
		},
	}
}

func entriesTable(entries []*convert.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Source", "Converted copy", "Fingerprint", "Converted at")
	for _, e := range entries {
		t.Row(e.Source, e.Derived, shortSum(e.Fingerprint.Sum), e.ConvertedAt.Local().Format(time.DateTime))
	}
	return t.Render()
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
