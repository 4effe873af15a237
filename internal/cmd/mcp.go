package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind/locate"
	"github.com/aerissecure/cellfind/mcpserver"
	"github.com/aerissecure/cellfind/search"
)

// NewMCPCommand creates the mcp command
func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search_workbooks and locate_cell over MCP stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing two tools:
search_workbooks (folder, keyword, header_row) and locate_cell (file, sheet,
cell). locate_cell only accepts .xlsx/.xlsm files; convert legacy workbooks
with "cellfind convert" first. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)
			s := mcpserver.New(Version, search.New(cfg, log), locate.New(cfg, log))
			return mcpserver.Serve(s)
		},
	}
}
