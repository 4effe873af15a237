package workbook

import (
	"iter"

	xlsbworkbook "github.com/TsubasaBE/go-xlsb/workbook"
	"github.com/TsubasaBE/go-xlsb/worksheet"
)

type xlsbWorkbook struct {
	ref  Ref
	opts Options
	wb   *xlsbworkbook.Workbook
}

func openXLSB(ref Ref, opts Options) (_ Workbook, err error) {
	defer guard(ref.Path, &err)

	wb, err := xlsbworkbook.Open(ref.Path)
	if err != nil {
		return nil, unreadable(ref.Path, err)
	}
	return &xlsbWorkbook{ref: ref, opts: opts, wb: wb}, nil
}

func (x *xlsbWorkbook) Ref() Ref { return x.ref }

func (x *xlsbWorkbook) Sheets() []SheetRef {
	return sheetRefs(x.ref, x.wb.Sheets())
}

func (x *xlsbWorkbook) Rows(name string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		ws, err := x.sheet(name)
		if err != nil {
			yield(Row{}, err)
			return
		}
		for cells := range ws.Rows(true) {
			if len(cells) == 0 {
				continue
			}
			idx, ok := x.opts.bodyIndex(cells[0].R)
			if !ok {
				continue
			}
			values := x.values(cells)
			if !hasValue(values) {
				continue
			}
			if !yield(Row{Index: idx, Cells: values}, nil) {
				return
			}
		}
	}
}

// sheet resolves name exactly; the library's own lookup folds case.
func (x *xlsbWorkbook) sheet(name string) (_ *worksheet.Worksheet, err error) {
	defer guard(x.ref.Path, &err)

	for i, n := range x.wb.Sheets() {
		if n == name {
			ws, err := x.wb.Sheet(i + 1)
			if err != nil {
				return nil, unreadable(x.ref.Path, err)
			}
			return ws, nil
		}
	}
	return nil, noSheet(x.ref, name)
}

func (x *xlsbWorkbook) values(cells []worksheet.Cell) []Value {
	var out []Value
	for _, c := range cells {
		switch v := c.V.(type) {
		case nil:
			continue
		case float64:
			out = put(out, c.C, FormattedNumber(v, x.wb.FormatCell(v, c.Style)))
		case bool:
			out = put(out, c.C, BoolValue(v))
		case string:
			out = put(out, c.C, TextValue(v))
		default:
			out = put(out, c.C, TextValue(x.wb.FormatCell(v, c.Style)))
		}
	}
	return out
}

func (x *xlsbWorkbook) Close() error {
	return x.wb.Close()
}
