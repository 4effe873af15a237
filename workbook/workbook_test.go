package workbook_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/cellfind/internal/xlsxtest"
	"github.com/aerissecure/cellfind/workbook"
)

func readAll(t *testing.T, wb workbook.Workbook, sheet string) []workbook.Row {
	t.Helper()
	var rows []workbook.Row
	for row, err := range wb.Rows(sheet) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func TestRefFor(t *testing.T) {
	tests := []struct {
		path   string
		ok     bool
		kind   workbook.Kind
		format workbook.Format
	}{
		{"a/b/report.xlsx", true, workbook.KindXLSX, workbook.Modern},
		{"macro.XLSM", true, workbook.KindXLSX, workbook.Modern},
		{"old.xls", true, workbook.KindXLS, workbook.Legacy},
		{"OLD.XLS", true, workbook.KindXLS, workbook.Legacy},
		{"bin.xlsb", true, workbook.KindXLSB, workbook.Legacy},
		{"notes.csv", false, workbook.KindUnknown, workbook.FormatUnknown},
		{"README", false, workbook.KindUnknown, workbook.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ref, ok := workbook.RefFor(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.format, ref.Format)
		})
	}
}

func TestRowOffset(t *testing.T) {
	assert.Equal(t, 2, workbook.RowOffset(true))
	assert.Equal(t, 1, workbook.RowOffset(false))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLS", "c.xlsb", "d.xlsm", "notes.txt", "~$b.xlsx", "data.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested.xlsx", "inner.xlsx"), []byte("x"), 0o644))

	refs, err := workbook.Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, r := range refs {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"a.XLS", "b.xlsx", "c.xlsb", "d.xlsm"}, names)
	assert.Equal(t, workbook.Legacy, refs[0].Format)
	assert.Equal(t, workbook.Modern, refs[1].Format)
}

func TestDiscoverErrors(t *testing.T) {
	_, err := workbook.Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.xlsx")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = workbook.Discover(file)
	assert.Error(t, err)
}

func TestXLSXRowsWithHeader(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "Data", Rows: [][]any{
			{"id", "name", "qty"},
			{"r1", "Widget", 3},
			{},
			{"r3", nil, true},
		}},
		xlsxtest.Sheet{Name: "Empty"},
	)

	wb, err := workbook.OpenPath(path, workbook.Options{HeaderRow: true})
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Data", sheets[0].Name)
	assert.Equal(t, "Empty", sheets[1].Name)
	assert.Equal(t, path, sheets[0].Workbook.Path)

	rows := readAll(t, wb, "Data")
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Index)
	require.Len(t, rows[0].Cells, 3)
	assert.Equal(t, "Widget", rows[0].Cells[1].Str)
	assert.Equal(t, workbook.Number, rows[0].Cells[2].Kind)
	assert.Equal(t, 3.0, rows[0].Cells[2].Num)

	// Sheet row 4 is body index 2; the blank row 3 is skipped.
	assert.Equal(t, 2, rows[1].Index)
	assert.True(t, rows[1].Cells[1].IsBlank())
	assert.Equal(t, workbook.Bool, rows[1].Cells[2].Kind)
	assert.Equal(t, "TRUE", rows[1].Cells[2].Str)

	assert.Empty(t, readAll(t, wb, "Empty"))
}

func TestXLSXRowsWithoutHeader(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "S", Rows: [][]any{{"first"}, {"second"}}})

	wb, err := workbook.OpenPath(path, workbook.Options{})
	require.NoError(t, err)
	defer wb.Close()

	rows := readAll(t, wb, "S")
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "first", rows[0].Cells[0].Str)
	assert.Equal(t, 1, rows[1].Index)
}

// clearRefs drops the r attribute from sheet row 2 and from the last cell of
// sheet row 4, as some third-party writers do.
func clearRefs(t *testing.T, path string) {
	t.Helper()
	ss, err := spreadsheet.Open(path)
	require.NoError(t, err)
	for _, r := range ss.Sheets()[0].X().SheetData.Row {
		switch *r.RAttr {
		case 2:
			r.RAttr = nil
		case 4:
			r.C[len(r.C)-1].RAttr = nil
		}
	}
	require.NoError(t, ss.SaveToFile(path))
}

func TestXLSXRowsWithoutRefs(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "S", Rows: [][]any{
			{"id", "name"},
			{"r1", "alpha"},
			{},
			{"r3", nil, "needle"},
		}})
	clearRefs(t, path)

	wb, err := workbook.OpenPath(path, workbook.Options{HeaderRow: true})
	require.NoError(t, err)
	defer wb.Close()

	rows := readAll(t, wb, "S")
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "alpha", rows[0].Cells[1].Str)
	assert.Equal(t, 2, rows[1].Index)
	require.Len(t, rows[1].Cells, 2)
	assert.Equal(t, "r3", rows[1].Cells[0].Str)
	assert.Equal(t, "needle", rows[1].Cells[1].Str)
}

func TestFillRefs(t *testing.T) {
	ss := spreadsheet.New()
	s := ss.AddSheet()
	first := s.AddRow()
	first.AddCell().SetString("a")
	first.AddCell().SetString("b")
	second := s.AddRow()
	second.AddCell().SetString("c")
	second.AddCell().SetString("d")

	first.X().C[1].RAttr = nil
	second.X().RAttr = nil
	for _, c := range second.X().C {
		c.RAttr = nil
	}
	workbook.FillRefs(s)

	require.NotNil(t, second.X().RAttr)
	assert.Equal(t, uint32(2), *second.X().RAttr)
	assert.Equal(t, "B1", *first.X().C[1].RAttr)
	assert.Equal(t, "A2", *second.X().C[0].RAttr)
	assert.Equal(t, "B2", *second.X().C[1].RAttr)
}

func TestRowsStopsEarly(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "S", Rows: [][]any{{"a"}, {"b"}, {"c"}}})
	wb, err := workbook.OpenPath(path, workbook.Options{})
	require.NoError(t, err)
	defer wb.Close()

	n := 0
	for _, err := range wb.Rows("S") {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestMissingSheet(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx", xlsxtest.Sheet{Name: "Only"})
	wb, err := workbook.OpenPath(path, workbook.Options{})
	require.NoError(t, err)
	defer wb.Close()

	var got error
	for _, err := range wb.Rows("Nope") {
		got = err
	}
	assert.ErrorIs(t, got, workbook.ErrNoSheet)
}

func TestUnreadable(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.xlsx", "bad.xls", "bad.xlsb"} {
		t.Run(name, func(t *testing.T) {
			path := xlsxtest.Garbage(t, dir, name)
			_, err := workbook.OpenPath(path, workbook.Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, workbook.ErrUnreadable)

			var ue *workbook.UnreadableError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, path, ue.Path)
		})
	}
}

func TestUnreadableMissingFile(t *testing.T) {
	ref, ok := workbook.RefFor(filepath.Join(t.TempDir(), "gone.xlsx"))
	require.True(t, ok)
	_, err := workbook.ListSheets(ref)
	assert.ErrorIs(t, err, workbook.ErrUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenPathRejectsUnknownExtension(t *testing.T) {
	_, err := workbook.OpenPath("notes.txt", workbook.Options{})
	assert.ErrorIs(t, err, workbook.ErrUnreadable)
}

func TestListSheets(t *testing.T) {
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "One"}, xlsxtest.Sheet{Name: "Two"})
	ref, _ := workbook.RefFor(path)
	sheets, err := workbook.ListSheets(ref)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Two", sheets[1].Name)
}
