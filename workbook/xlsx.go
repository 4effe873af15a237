package workbook

import (
	"iter"

	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/aerissecure/cellfind/address"
)

type xlsxWorkbook struct {
	ref  Ref
	opts Options
	wb   *spreadsheet.Workbook
}

func openXLSX(ref Ref, opts Options) (_ Workbook, err error) {
	defer guard(ref.Path, &err)

	wb, err := spreadsheet.Open(ref.Path)
	if err != nil {
		return nil, unreadable(ref.Path, err)
	}
	return &xlsxWorkbook{ref: ref, opts: opts, wb: wb}, nil
}

func (x *xlsxWorkbook) Ref() Ref { return x.ref }

func (x *xlsxWorkbook) Sheets() []SheetRef {
	sheets := x.wb.Sheets()
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name()
	}
	return sheetRefs(x.ref, names)
}

func (x *xlsxWorkbook) Rows(name string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := x.sheetRows(name)
		if err != nil {
			yield(Row{}, err)
			return
		}
		for _, row := range rows {
			r, ok, err := x.convertRow(row)
			if err != nil {
				yield(Row{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (x *xlsxWorkbook) sheetRows(name string) (_ []spreadsheet.Row, err error) {
	defer guard(x.ref.Path, &err)

	for _, s := range x.wb.Sheets() {
		if s.Name() == name {
			FillRefs(s)
			return s.Rows(), nil
		}
	}
	return nil, noSheet(x.ref, name)
}

// FillRefs gives a position to every row and cell of s that omits its r
// attribute, which OOXML allows. Such a row follows the previous row and such
// a cell follows the previous cell of its row.
func FillRefs(s spreadsheet.Sheet) {
	ws := s.X()
	if ws == nil || ws.SheetData == nil {
		return
	}
	var row uint32
	for _, r := range ws.SheetData.Row {
		if r.RAttr == nil {
			n := row + 1
			r.RAttr = &n
		}
		row = *r.RAttr
		col := 0
		for _, c := range r.C {
			if c.RAttr == nil {
				ref := address.Encode(int(row), col+1)
				c.RAttr = &ref
			}
			if _, cc, err := address.Decode(*c.RAttr); err == nil {
				col = cc
			} else {
				col++
			}
		}
	}
}

func (x *xlsxWorkbook) convertRow(row spreadsheet.Row) (_ Row, ok bool, err error) {
	defer guard(x.ref.Path, &err)

	idx, ok := x.opts.bodyIndex(int(row.RowNumber()) - 1)
	if !ok {
		return Row{}, false, nil
	}
	var cells []Value
	for _, cell := range row.Cells() {
		col, cerr := cell.Column()
		if cerr != nil {
			continue
		}
		cells = put(cells, int(reference.ColumnToIndex(col)), xlsxValue(cell))
	}
	if !hasValue(cells) {
		return Row{}, false, nil
	}
	return Row{Index: idx, Cells: cells}, true, nil
}

func (x *xlsxWorkbook) Close() error { return nil }

// xlsxValue converts a cell using its stored type; numbers keep the display
// string Excel would show.
func xlsxValue(cell spreadsheet.Cell) Value {
	if cell.IsEmpty() {
		return Value{}
	}
	switch cell.X().TAttr {
	case sml.ST_CellTypeB:
		return BoolValue(cell.GetString() == "1")
	case sml.ST_CellTypeN, sml.ST_CellTypeUnset:
		if f, err := cell.GetValueAsNumber(); err == nil {
			return FormattedNumber(f, cell.GetFormattedValue())
		}
	}
	return TextValue(cell.GetString())
}
