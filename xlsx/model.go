package xlsx

import (
	"github.com/aerissecure/cellfind/address"
)

// Pixel values are floats to allow fractional widths/heights.

// CellStyle captures the subset of Excel styling the preview reproduces.
type CellStyle struct {
	FontFamily      string  // e.g. "Calibri"
	FontSizePt      float64 // original size in points
	FontColor       string  // "RRGGBB"
	BackgroundColor string  // "RRGGBB"
	BorderColor     string  // left border color, used for all sides
	HorizontalAlign string  // left|center|right|justify
	VerticalAlign   string  // top|middle|bottom
	WrapText        bool
	IndentPx        float64
}

// RenderCell is one cell (or merge master) inside the preview window.
type RenderCell struct {
	Ref     string // e.g. "C6"
	Value   string // formatted as Excel displays it
	ColSpan int    // 1 if not merged
	RowSpan int    // 1 if not merged
	Style   CellStyle
	Target  bool // the located cell
}

// RenderRow is one sheet row inside the window.
type RenderRow struct {
	Number   int // one-based sheet row
	HeightPx float64
	Hidden   bool
	Cells    []*RenderCell // len == len(ColWidths); nil for blank or merge-covered cells
}

// RenderSheet is a rectangular window of one worksheet.
type RenderSheet struct {
	Name      string
	Origin    address.Cell // top-left cell of the window
	Target    address.Cell
	ColWidths []float64
	ColHidden []bool
	Rows      []RenderRow
}

// Window selects the cells a preview covers.
type Window struct {
	Origin address.Cell
	Rows   int
	Cols   int
	Target address.Cell
}

// Default preview extent, roughly one screen of a maximized workbook.
const (
	PreviewRows = 20
	PreviewCols = 10
)

// WindowAround returns the window whose origin is the viewport top-left
// for target, given row and column margins.
func WindowAround(target address.Cell, rowMargin, colMargin int) Window {
	return Window{
		Origin: target.Offset(-rowMargin, -colMargin),
		Rows:   PreviewRows,
		Cols:   PreviewCols,
		Target: target,
	}
}

func (w Window) containsRow(row int) bool {
	return row >= w.Origin.Row && row < w.Origin.Row+w.Rows
}

func (w Window) containsCol(col int) bool {
	return col >= w.Origin.Col && col < w.Origin.Col+w.Cols
}
