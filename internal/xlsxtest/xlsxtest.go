// Package xlsxtest writes small .xlsx fixtures for tests.
package xlsxtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerissecure/cellfind/workbook"
	"github.com/aerissecure/cellfind/xlsx"
)

// Sheet is fixture content. Rows[0] is sheet row 1; a nil cell is blank.
type Sheet struct {
	Name string
	Rows [][]any
}

// Sheets converts fixtures into writer input.
func Sheets(sheets ...Sheet) []xlsx.Sheet {
	out := make([]xlsx.Sheet, 0, len(sheets))
	for _, s := range sheets {
		xs := xlsx.Sheet{Name: s.Name}
		for i, row := range s.Rows {
			cells := make([]workbook.Value, len(row))
			for c, v := range row {
				cells[c] = workbook.ValueOf(v)
			}
			xs.Rows = append(xs.Rows, workbook.Row{Index: i, Cells: cells})
		}
		out = append(out, xs)
	}
	return out
}

// Write creates an .xlsx file at path holding sheets.
func Write(t testing.TB, path string, sheets ...Sheet) string {
	t.Helper()
	require.NoError(t, xlsx.WriteFile(path, Sheets(sheets...)))
	return path
}

// WriteIn creates dir/name holding sheets and returns its path.
func WriteIn(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()
	return Write(t, filepath.Join(dir, name), sheets...)
}

// Garbage writes bytes that no spreadsheet reader accepts to dir/name.
func Garbage(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook\x00\x01\x02"), 0o644))
	return path
}
