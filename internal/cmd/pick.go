package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind"
	"github.com/aerissecure/cellfind/convert"
	"github.com/aerissecure/cellfind/tui"
)

// NewPickCommand creates the interactive picker command
func NewPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <folder> <keyword>",
		Short: "Search interactively and open a match",
		Long: `Search a folder, then browse the matches in a full-screen list. Enter
opens the highlighted match, c copies an Excel-style reference to it.
Conversion prompts appear inside the picker.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			prompts := tui.NewConfirmer()
			var c convert.Confirmer = prompts
			if cfg.AssumeYes {
				c = convert.Always(true)
			}
			// The picker owns the terminal; only errors reach stderr.
			cfg.LogLevel = "error"
			app := cellfind.New(cfg, c, newLogger(cmd, cfg))
			return tui.Run(app, prompts, args[0], args[1])
		},
	}
}
