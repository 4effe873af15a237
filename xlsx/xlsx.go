// Package xlsx works on modern OOXML workbooks through unioffice: it writes
// converted workbooks, edits per-sheet view state, and renders an HTML
// preview window around a cell.
package xlsx

import (
	"fmt"
	"os"

	"github.com/unidoc/unioffice/schema/soo/dml"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/cellfind/internal/filelock"
)

// Open reads the workbook at path for editing.
func Open(path string) (*spreadsheet.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return wb, nil
}

// Save replaces path with wb under the path's file lock. The previous
// contents stay in place until the new bytes are fully written.
func Save(wb *spreadsheet.Workbook, path string) error {
	return filelock.LockAndWrite(path, wb.Save)
}

// SheetNames lists sheet names in workbook order.
func SheetNames(wb *spreadsheet.Workbook) []string {
	sheets := wb.Sheets()
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name()
	}
	return names
}

// SheetIndex returns the position of the sheet called name.
func SheetIndex(wb *spreadsheet.Workbook, name string) (int, bool) {
	for i, s := range wb.Sheets() {
		if s.Name() == name {
			return i, true
		}
	}
	return -1, false
}

// xf returns the cell format record for a style id, or nil.
func xf(ss spreadsheet.StyleSheet, styleID uint32) *sml.CT_Xf {
	x := ss.X()
	if x.CellXfs == nil || int(styleID) >= len(x.CellXfs.Xf) {
		return nil
	}
	return x.CellXfs.Xf[styleID]
}

func fontFor(ss spreadsheet.StyleSheet, styleID uint32) *sml.CT_Font {
	f := xf(ss, styleID)
	if f == nil || f.FontIdAttr == nil || ss.X().Fonts == nil {
		return nil
	}
	if idx := int(*f.FontIdAttr); idx < len(ss.X().Fonts.Font) {
		return ss.X().Fonts.Font[idx]
	}
	return nil
}

func fillFor(ss spreadsheet.StyleSheet, styleID uint32) *sml.CT_Fill {
	f := xf(ss, styleID)
	if f == nil || f.FillIdAttr == nil || ss.X().Fills == nil {
		return nil
	}
	if idx := int(*f.FillIdAttr); idx < len(ss.X().Fills.Fill) {
		return ss.X().Fills.Fill[idx]
	}
	return nil
}

func borderFor(ss spreadsheet.StyleSheet, styleID uint32) *sml.CT_Border {
	f := xf(ss, styleID)
	if f == nil || f.BorderIdAttr == nil || ss.X().Borders == nil {
		return nil
	}
	if idx := int(*f.BorderIdAttr); idx < len(ss.X().Borders.Border) {
		return ss.X().Borders.Border[idx]
	}
	return nil
}

// themeColor resolves a zero-based theme color index to "RRGGBB" without
// applying tint.
func themeColor(wb *spreadsheet.Workbook, idx int) (string, bool) {
	themes := wb.Themes()
	if len(themes) == 0 || themes[0] == nil || themes[0].ThemeElements == nil {
		return "", false
	}
	cs := themes[0].ThemeElements.ClrScheme
	if cs == nil {
		return "", false
	}
	scheme := []*dml.CT_Color{
		cs.Dk1, cs.Lt1, cs.Dk2, cs.Lt2,
		cs.Accent1, cs.Accent2, cs.Accent3, cs.Accent4, cs.Accent5, cs.Accent6,
		cs.Hlink, cs.FolHlink,
	}
	if idx < 0 || idx >= len(scheme) || scheme[idx] == nil {
		return "", false
	}
	clr := scheme[idx]
	switch {
	case clr.SrgbClr != nil && clr.SrgbClr.ValAttr != "":
		return clr.SrgbClr.ValAttr, true
	case clr.SysClr != nil && clr.SysClr.LastClrAttr != nil:
		return *clr.SysClr.LastClrAttr, true
	}
	return "", false
}
