// Package mcpserver exposes workbook search and cell navigation as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/locate"
	"github.com/aerissecure/cellfind/report"
	"github.com/aerissecure/cellfind/search"
	"github.com/aerissecure/cellfind/workbook"
)

const serverName = "cellfind"

// New builds a server with every tool registered.
func New(version string, eng *search.Engine, loc *locate.Locator) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)
	Register(s, eng, loc)
	return s
}

// Register adds the search and locate tools to s.
func Register(s *server.MCPServer, eng *search.Engine, loc *locate.Locator) {
	s.AddTool(searchTool(), searchHandler(eng))
	s.AddTool(locateTool(), locateHandler(loc))
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- search_workbooks ---

func searchTool() mcp.Tool {
	return mcp.NewTool("search_workbooks",
		mcp.WithDescription("Search every spreadsheet directly inside a folder for cells containing a keyword (case-insensitive). Returns file, sheet and A1 cell for each match."),
		mcp.WithString("folder",
			mcp.Description("Folder to scan; subfolders are not searched"),
			mcp.Required(),
		),
		mcp.WithString("keyword",
			mcp.Description("Text to look for inside cell values"),
			mcp.Required(),
		),
		mcp.WithBoolean("header_row",
			mcp.Description("Treat the first row of each sheet as a header that is not searched"),
		),
	)
}

func searchHandler(eng *search.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder, err := req.RequireString("folder")
		if err != nil {
			return toolError(err)
		}
		keyword := req.GetString("keyword", "")

		e := *eng
		e.HeaderRow = req.GetBool("header_row", eng.HeaderRow)

		res, err := e.Search(folder, keyword).Wait(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultStructured(report.NewDocument(res), report.MarkdownString(res)), nil
	}
}

// --- locate_cell ---

func locateTool() mcp.Tool {
	return mcp.NewTool("locate_cell",
		mcp.WithDescription("Make a cell the active cell of an .xlsx workbook and scroll its sheet so the cell is visible when the file is next opened. Legacy .xls/.xlsb files must be converted first."),
		mcp.WithString("file",
			mcp.Description("Path to the workbook"),
			mcp.Required(),
		),
		mcp.WithString("sheet",
			mcp.Description("Sheet name, matched exactly"),
			mcp.Required(),
		),
		mcp.WithString("cell",
			mcp.Description("A1-style cell reference, e.g. C12"),
			mcp.Required(),
		),
	)
}

func locateHandler(loc *locate.Locator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		file, err := req.RequireString("file")
		if err != nil {
			return toolError(err)
		}
		sheet, err := req.RequireString("sheet")
		if err != nil {
			return toolError(err)
		}
		raw, err := req.RequireString("cell")
		if err != nil {
			return toolError(err)
		}
		cell, err := address.Parse(raw)
		if err != nil {
			return toolError(err)
		}

		ref, ok := workbook.RefFor(file)
		if !ok {
			return toolError(fmt.Errorf("%s is not a spreadsheet", file))
		}
		if ref.Format != workbook.Modern {
			return toolError(fmt.Errorf("%s is a %s workbook; convert it with `cellfind convert` first", file, ref.Kind))
		}

		out, err := loc.Apply(ctx, ref, sheet, cell)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s!%s active, view starts at %s",
			out.Path, out.Sheet, out.Active, out.TopLeft)), nil
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
