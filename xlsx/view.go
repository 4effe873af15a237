package xlsx

import (
	"fmt"

	"github.com/unidoc/unioffice"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/cellfind/address"
)

// View is the persisted view state of one sheet.
type View struct {
	Active  address.Cell // selection anchor; the selection is this one cell
	TopLeft address.Cell // first visible cell
}

// SetView writes v into the first sheet view of the named sheet, makes that
// sheet the workbook's active tab and deselects every other tab.
func SetView(wb *spreadsheet.Workbook, sheet string, v View) error {
	if !v.Active.Valid() || !v.TopLeft.Valid() {
		return fmt.Errorf("%w: view %+v", address.ErrInvalidAddress, v)
	}
	idx, ok := SheetIndex(wb, sheet)
	if !ok {
		return fmt.Errorf("sheet %q not found", sheet)
	}

	for i, s := range wb.Sheets() {
		sv := sheetView(s)
		if i != idx {
			sv.TabSelectedAttr = nil
			continue
		}
		active := v.Active.String()
		sv.TabSelectedAttr = unioffice.Bool(true)
		sv.TopLeftCellAttr = unioffice.String(v.TopLeft.String())
		sel := sml.NewCT_Selection()
		sel.ActiveCellAttr = unioffice.String(active)
		sqref := sml.ST_Sqref{active}
		sel.SqrefAttr = &sqref
		sv.Selection = []*sml.CT_Selection{sel}
	}
	bookView(wb).ActiveTabAttr = unioffice.Uint32(uint32(idx))
	return nil
}

// ReadView returns the view state stored for the named sheet. ok is false
// when the sheet is missing or carries no active cell.
func ReadView(wb *spreadsheet.Workbook, sheet string) (v View, ok bool) {
	idx, found := SheetIndex(wb, sheet)
	if !found {
		return View{}, false
	}
	x := wb.Sheets()[idx].X()
	if x.SheetViews == nil || len(x.SheetViews.SheetView) == 0 {
		return View{}, false
	}
	sv := x.SheetViews.SheetView[0]

	v.TopLeft = address.Cell{Row: 1, Col: 1}
	if sv.TopLeftCellAttr != nil {
		if c, err := address.Parse(*sv.TopLeftCellAttr); err == nil {
			v.TopLeft = c
		}
	}
	for _, sel := range sv.Selection {
		if sel.ActiveCellAttr == nil {
			continue
		}
		c, err := address.Parse(*sel.ActiveCellAttr)
		if err != nil {
			return View{}, false
		}
		v.Active = c
		return v, true
	}
	return View{}, false
}

// ActiveSheet returns the name of the workbook's active tab.
func ActiveSheet(wb *spreadsheet.Workbook) string {
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return ""
	}
	idx := 0
	if bv := wb.X().BookViews; bv != nil && len(bv.WorkbookView) > 0 && bv.WorkbookView[0].ActiveTabAttr != nil {
		idx = int(*bv.WorkbookView[0].ActiveTabAttr)
	}
	if idx >= len(sheets) {
		idx = 0
	}
	return sheets[idx].Name()
}

// sheetView returns the sheet's first view, creating one if absent.
func sheetView(s spreadsheet.Sheet) *sml.CT_SheetView {
	x := s.X()
	if x.SheetViews == nil {
		x.SheetViews = sml.NewCT_SheetViews()
	}
	if len(x.SheetViews.SheetView) == 0 {
		x.SheetViews.SheetView = append(x.SheetViews.SheetView, sml.NewCT_SheetView())
	}
	return x.SheetViews.SheetView[0]
}

// bookView returns the workbook's first view, creating one if absent.
func bookView(wb *spreadsheet.Workbook) *sml.CT_BookView {
	x := wb.X()
	if x.BookViews == nil {
		x.BookViews = sml.NewCT_BookViews()
	}
	if len(x.BookViews.WorkbookView) == 0 {
		x.BookViews.WorkbookView = append(x.BookViews.WorkbookView, sml.NewCT_BookView())
	}
	return x.BookViews.WorkbookView[0]
}
