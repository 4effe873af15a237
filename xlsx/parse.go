package xlsx

import (
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/workbook"
)

const (
	defaultColWidth  = 8.43 // characters
	charWidthPx      = 8.3
	defaultRowHeight = 15.0 // points
	ptToPx           = 1.333
)

type span struct{ rows, cols int }

// ParseWindow resolves the cells of sheet that fall inside win, with styles
// and merged regions clipped to the window.
func ParseWindow(wb *spreadsheet.Workbook, sheet string, win Window) (RenderSheet, error) {
	idx, ok := SheetIndex(wb, sheet)
	if !ok {
		return RenderSheet{}, fmt.Errorf("sheet %q not found", sheet)
	}
	if !win.Origin.Valid() || win.Rows < 1 || win.Cols < 1 {
		return RenderSheet{}, fmt.Errorf("invalid preview window %+v", win)
	}
	s := wb.Sheets()[idx]
	workbook.FillRefs(s)

	rs := RenderSheet{
		Name:      s.Name(),
		Origin:    win.Origin,
		Target:    win.Target,
		ColWidths: make([]float64, win.Cols),
		ColHidden: make([]bool, win.Cols),
		Rows:      make([]RenderRow, win.Rows),
	}
	for c := range win.Cols {
		col := s.Column(uint32(win.Origin.Col + c))
		rs.ColWidths[c] = defaultColWidth * charWidthPx
		if x := col.X(); x != nil {
			if x.CustomWidthAttr != nil && *x.CustomWidthAttr && x.WidthAttr != nil {
				rs.ColWidths[c] = *x.WidthAttr * charWidthPx
			}
			if x.HiddenAttr != nil {
				rs.ColHidden[c] = *x.HiddenAttr
			}
		}
	}
	for r := range rs.Rows {
		rs.Rows[r] = RenderRow{
			Number:   win.Origin.Row + r,
			HeightPx: defaultRowHeight * ptToPx,
			Cells:    make([]*RenderCell, win.Cols),
		}
	}

	masters, covered := merges(s, win)

	for _, row := range s.Rows() {
		number := int(row.RowNumber())
		if !win.containsRow(number) {
			continue
		}
		rr := &rs.Rows[number-win.Origin.Row]
		rr.Hidden = row.IsHidden()
		if row.X().CustomHeightAttr != nil && *row.X().CustomHeightAttr && row.X().HtAttr != nil {
			rr.HeightPx = *row.X().HtAttr * ptToPx
		}

		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			at := address.Cell{Row: number, Col: int(reference.ColumnToIndex(colName)) + 1}
			if !win.containsCol(at.Col) || covered[at] {
				continue
			}
			rc := &RenderCell{
				Ref:     at.String(),
				Value:   cell.GetFormattedValue(),
				ColSpan: 1,
				RowSpan: 1,
				Target:  at == win.Target,
			}
			if cell.X().SAttr != nil {
				rc.Style = resolveStyle(wb, *cell.X().SAttr)
			}
			if sp, ok := masters[at]; ok {
				rc.RowSpan, rc.ColSpan = sp.rows, sp.cols
			}
			rr.Cells[at.Col-win.Origin.Col] = rc
		}
	}

	// The target is always marked, even when the cell itself is blank.
	if win.containsRow(win.Target.Row) && win.containsCol(win.Target.Col) && !covered[win.Target] {
		r, c := win.Target.Row-win.Origin.Row, win.Target.Col-win.Origin.Col
		if rs.Rows[r].Cells[c] == nil {
			rs.Rows[r].Cells[c] = &RenderCell{Ref: win.Target.String(), ColSpan: 1, RowSpan: 1, Target: true}
		}
	}
	return rs, nil
}

// merges returns merge masters inside win with spans clipped to the window,
// and every other window cell a merge covers.
func merges(s spreadsheet.Sheet, win Window) (map[address.Cell]span, map[address.Cell]bool) {
	masters := make(map[address.Cell]span)
	covered := make(map[address.Cell]bool)
	if s.X().MergeCells == nil {
		return masters, covered
	}
	lastRow := win.Origin.Row + win.Rows - 1
	lastCol := win.Origin.Col + win.Cols - 1
	for _, mc := range s.X().MergeCells.MergeCell {
		from, to, err := reference.ParseRangeReference(mc.RefAttr)
		if err != nil {
			continue
		}
		top, left := int(from.RowIdx), int(from.ColumnIdx)+1
		bottom, right := min(int(to.RowIdx), lastRow), min(int(to.ColumnIdx)+1, lastCol)
		master := address.Cell{Row: top, Col: left}
		if win.containsRow(top) && win.containsCol(left) {
			masters[master] = span{rows: bottom - top + 1, cols: right - left + 1}
		}
		for r := max(top, win.Origin.Row); r <= bottom; r++ {
			for c := max(left, win.Origin.Col); c <= right; c++ {
				if at := (address.Cell{Row: r, Col: c}); at != master {
					covered[at] = true
				}
			}
		}
	}
	return masters, covered
}

func resolveStyle(wb *spreadsheet.Workbook, styleID uint32) CellStyle {
	var st CellStyle
	ss := wb.StyleSheet
	if font := fontFor(ss, styleID); font != nil {
		if len(font.Name) > 0 {
			st.FontFamily = font.Name[0].ValAttr
		}
		if len(font.Sz) > 0 {
			st.FontSizePt = font.Sz[0].ValAttr
		}
		if len(font.Color) > 0 && font.Color[0].RgbAttr != nil {
			st.FontColor = normalizeColor(*font.Color[0].RgbAttr)
		}
	}
	if fill := fillFor(ss, styleID); fill != nil && fill.PatternFill != nil && fill.PatternFill.FgColor != nil {
		fg := fill.PatternFill.FgColor
		if fg.RgbAttr != nil {
			st.BackgroundColor = normalizeColor(*fg.RgbAttr)
		} else if fg.ThemeAttr != nil {
			if hex, ok := themeColor(wb, int(*fg.ThemeAttr)); ok {
				st.BackgroundColor = hex
			}
		}
	}
	if border := borderFor(ss, styleID); border != nil && border.Left != nil && border.Left.Color != nil && border.Left.Color.RgbAttr != nil {
		st.BorderColor = normalizeColor(*border.Left.Color.RgbAttr)
	}
	if f := xf(ss, styleID); f != nil && f.Alignment != nil {
		st.HorizontalAlign = f.Alignment.HorizontalAttr.String()
		switch f.Alignment.VerticalAttr.String() {
		case "top":
			st.VerticalAlign = "top"
		case "center":
			st.VerticalAlign = "middle"
		default:
			st.VerticalAlign = "bottom"
		}
		if f.Alignment.WrapTextAttr != nil {
			st.WrapText = *f.Alignment.WrapTextAttr
		}
		if f.Alignment.IndentAttr != nil {
			st.IndentPx = float64(*f.Alignment.IndentAttr) * 8.0
		}
	}
	return st
}

// normalizeColor converts 8-digit ARGB hex to 6-digit RGB. Other lengths are
// returned unchanged.
func normalizeColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 8 {
		return hex[2:]
	}
	return hex
}
