package workbook

import (
	"errors"
	"iter"
	"os"
	"strconv"

	"github.com/extrame/xls"
)

// xlsCharset is handed to the BIFF parser for pre-BIFF8 byte strings.
const xlsCharset = "utf-8"

type xlsWorkbook struct {
	ref  Ref
	opts Options
	file *os.File
	wb   *xls.WorkBook
}

func openXLS(ref Ref, opts Options) (_ Workbook, err error) {
	f, err := os.Open(ref.Path)
	if err != nil {
		return nil, unreadable(ref.Path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()
	defer guard(ref.Path, &err)

	wb, err := xls.OpenReader(f, xlsCharset)
	if err != nil {
		return nil, unreadable(ref.Path, err)
	}
	if wb == nil {
		return nil, unreadable(ref.Path, errors.New("no Workbook stream in compound file"))
	}
	return &xlsWorkbook{ref: ref, opts: opts, file: f, wb: wb}, nil
}

func (x *xlsWorkbook) Ref() Ref { return x.ref }

func (x *xlsWorkbook) Sheets() []SheetRef {
	names, err := x.sheetNames()
	if err != nil {
		return nil
	}
	return sheetRefs(x.ref, names)
}

func (x *xlsWorkbook) sheetNames() (_ []string, err error) {
	defer guard(x.ref.Path, &err)

	names := make([]string, 0, x.wb.NumSheets())
	for i := 0; i < x.wb.NumSheets(); i++ {
		if s := x.wb.GetSheet(i); s != nil {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

func (x *xlsWorkbook) Rows(name string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		sheet, err := x.sheet(name)
		if err != nil {
			yield(Row{}, err)
			return
		}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			idx, ok := x.opts.bodyIndex(r)
			if !ok {
				continue
			}
			cells, err := x.rowCells(sheet, r)
			if err != nil {
				yield(Row{}, err)
				return
			}
			if !hasValue(cells) {
				continue
			}
			if !yield(Row{Index: idx, Cells: cells}, nil) {
				return
			}
		}
	}
}

func (x *xlsWorkbook) sheet(name string) (_ *xls.WorkSheet, err error) {
	defer guard(x.ref.Path, &err)

	for i := 0; i < x.wb.NumSheets(); i++ {
		if s := x.wb.GetSheet(i); s != nil && s.Name == name {
			return s, nil
		}
	}
	return nil, noSheet(x.ref, name)
}

// rowCells reads sheet row r. The parser panics on rows it never saw, so a
// missing row is recovered here and reported as empty.
func (x *xlsWorkbook) rowCells(sheet *xls.WorkSheet, r int) (cells []Value, err error) {
	row, present := lookupRow(sheet, r)
	if !present {
		return nil, nil
	}
	defer guard(x.ref.Path, &err)

	for c := row.FirstCol(); c < row.LastCol(); c++ {
		cells = put(cells, c, xlsValue(row.Col(c)))
	}
	return cells, nil
}

func lookupRow(sheet *xls.WorkSheet, r int) (row *xls.Row, present bool) {
	defer func() {
		if recover() != nil {
			row, present = nil, false
		}
	}()
	row = sheet.Row(r)
	return row, row != nil
}

// xlsValue types the parser's display strings. Only strings that format back
// to themselves are treated as numbers, so "007" stays text.
func xlsValue(s string) Value {
	if s == "" {
		return Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == s {
		return NumberValue(f)
	}
	switch s {
	case "TRUE":
		return BoolValue(true)
	case "FALSE":
		return BoolValue(false)
	}
	return TextValue(s)
}

func (x *xlsWorkbook) Close() error {
	return x.file.Close()
}
