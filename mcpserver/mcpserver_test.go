package mcpserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerissecure/cellfind/internal/xlsxtest"
	"github.com/aerissecure/cellfind/locate"
	"github.com/aerissecure/cellfind/report"
	"github.com/aerissecure/cellfind/search"
	"github.com/aerissecure/cellfind/xlsx"
)

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	xlsxtest.WriteIn(t, dir, "book.xlsx", xlsxtest.Sheet{
		Name: "Data",
		Rows: [][]any{{"id", "Needle"}, {1, "needle two"}},
	})
	return dir
}

func TestNewRegistersTools(t *testing.T) {
	s := New("test", &search.Engine{}, locate.NewDefault(nil))
	tools := s.ListTools()
	assert.Contains(t, tools, "search_workbooks")
	assert.Contains(t, tools, "locate_cell")
}

func TestSearchTool(t *testing.T) {
	dir := fixture(t)
	h := searchHandler(&search.Engine{HeaderRow: true})

	res, err := h(context.Background(), call(map[string]any{"folder": dir, "keyword": "NEEDLE"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	doc, ok := res.StructuredContent.(report.Document)
	require.True(t, ok)
	require.Len(t, doc.Matches, 1)
	assert.Equal(t, "B2", doc.Matches[0].Cell)
	assert.Contains(t, text(t, res), "| Data | B2 |")
}

func TestSearchToolHeaderOverride(t *testing.T) {
	dir := fixture(t)
	h := searchHandler(&search.Engine{HeaderRow: true})

	res, err := h(context.Background(), call(map[string]any{"folder": dir, "keyword": "needle", "header_row": false}))
	require.NoError(t, err)
	doc := res.StructuredContent.(report.Document)
	require.Len(t, doc.Matches, 2)
	assert.Equal(t, "B1", doc.Matches[0].Cell)
}

func TestSearchToolErrors(t *testing.T) {
	h := searchHandler(&search.Engine{})

	res, err := h(context.Background(), call(map[string]any{"keyword": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h(context.Background(), call(map[string]any{"folder": t.TempDir(), "keyword": ""}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), search.ErrEmptyKeyword.Error())
}

func TestLocateTool(t *testing.T) {
	path := filepath.Join(fixture(t), "book.xlsx")
	h := locateHandler(locate.NewDefault(nil))

	res, err := h(context.Background(), call(map[string]any{"file": path, "sheet": "Data", "cell": "B2"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), "Data!B2 active")

	wb, err := xlsx.Open(path)
	require.NoError(t, err)
	v, ok := xlsx.ReadView(wb, "Data")
	require.True(t, ok)
	assert.Equal(t, "B2", v.Active.String())
}

func TestLocateToolRejects(t *testing.T) {
	dir := fixture(t)
	h := locateHandler(locate.NewDefault(nil))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing cell", map[string]any{"file": filepath.Join(dir, "book.xlsx"), "sheet": "Data"}, "cell"},
		{"bad cell", map[string]any{"file": filepath.Join(dir, "book.xlsx"), "sheet": "Data", "cell": "1A"}, "invalid"},
		{"legacy", map[string]any{"file": filepath.Join(dir, "old.xls"), "sheet": "Data", "cell": "A1"}, "convert"},
		{"not a spreadsheet", map[string]any{"file": filepath.Join(dir, "notes.txt"), "sheet": "Data", "cell": "A1"}, "not a spreadsheet"},
		{"missing sheet", map[string]any{"file": filepath.Join(dir, "book.xlsx"), "sheet": "Dta", "cell": "A1"}, "did you mean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}
