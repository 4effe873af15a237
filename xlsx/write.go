package xlsx

import (
	"io"

	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/internal/filelock"
	"github.com/aerissecure/cellfind/workbook"
)

// Sheet is the tabular content of one sheet to be written. Rows must have
// been read without a header row, so Row.Index is the zero-based sheet row
// and every cell lands at its original address.
type Sheet struct {
	Name string
	Rows []workbook.Row
}

// defaultSheet names the single sheet of a workbook written from nothing.
const defaultSheet = "Sheet1"

// Build lays sheets out in a new workbook, keeping numbers numeric and
// booleans boolean.
func Build(sheets []Sheet) *spreadsheet.Workbook {
	wb := spreadsheet.New()
	if len(sheets) == 0 {
		wb.AddSheet().SetName(defaultSheet)
		return wb
	}
	for _, s := range sheets {
		sheet := wb.AddSheet()
		sheet.SetName(s.Name)
		for _, r := range s.Rows {
			row := sheet.AddNumberedRow(uint32(r.Index + 1))
			for c, v := range r.Cells {
				if v.IsBlank() {
					continue
				}
				cell := row.Cell(address.Column(c + 1))
				switch v.Kind {
				case workbook.Number:
					cell.SetNumber(v.Num)
				case workbook.Bool:
					cell.SetBool(v.Flag)
				default:
					cell.SetString(v.Str)
				}
			}
		}
	}
	return wb
}

// Write encodes sheets as an .xlsx workbook to w.
func Write(w io.Writer, sheets []Sheet) error {
	return Build(sheets).Save(w)
}

// WriteFile writes sheets to path atomically under the path's file lock.
func WriteFile(path string, sheets []Sheet) error {
	return filelock.LockAndWrite(path, func(w io.Writer) error {
		return Write(w, sheets)
	})
}
