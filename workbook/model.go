package workbook

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Format tags a workbook as needing conversion (Legacy) or as directly
// navigable (Modern).
type Format int

const (
	FormatUnknown Format = iota
	Legacy
	Modern
)

func (f Format) String() string {
	switch f {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return "unknown"
	}
}

// Kind is the concrete container behind a Format.
type Kind int

const (
	KindUnknown Kind = iota
	KindXLS          // BIFF8 binary, legacy
	KindXLSB         // binary OOXML, legacy
	KindXLSX         // OOXML, modern
)

// Extensions maps lowercase file extensions to their container kind.
var Extensions = map[string]Kind{
	".xls":  KindXLS,
	".xlsb": KindXLSB,
	".xlsx": KindXLSX,
	".xlsm": KindXLSX,
}

// ModernExt is the extension given to converted workbooks.
const ModernExt = ".xlsx"

// Format returns the format tag for k.
func (k Kind) Format() Format {
	switch k {
	case KindXLS, KindXLSB:
		return Legacy
	case KindXLSX:
		return Modern
	default:
		return FormatUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindXLS:
		return "xls"
	case KindXLSB:
		return "xlsb"
	case KindXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Ref identifies a workbook on disk. Identity is the path.
type Ref struct {
	Path   string
	Format Format
	Kind   Kind
}

// RefFor builds a Ref from a path's extension. ok is false when the
// extension is not a recognized spreadsheet format.
func RefFor(path string) (ref Ref, ok bool) {
	kind, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Ref{}, false
	}
	return Ref{Path: path, Format: kind.Format(), Kind: kind}, true
}

// Name is the file's base name.
func (r Ref) Name() string {
	return filepath.Base(r.Path)
}

func (r Ref) String() string {
	return fmt.Sprintf("%s (%s)", r.Path, r.Kind)
}

// SheetRef names one sheet of a workbook.
type SheetRef struct {
	Workbook Ref
	Name     string
}

// ValueKind distinguishes cell value types.
type ValueKind int

const (
	Blank ValueKind = iota
	Text
	Number
	Bool
)

// Value is one cell's content. Str always holds the textual form used for
// matching; Num and Flag carry the typed value for Number and Bool.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Flag bool
}

// TextValue returns a Text value; an empty string is Blank.
func TextValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: Text, Str: s}
}

// NumberValue returns a Number whose textual form is the shortest decimal.
func NumberValue(f float64) Value {
	return Value{Kind: Number, Num: f, Str: strconv.FormatFloat(f, 'f', -1, 64)}
}

// FormattedNumber returns a Number whose textual form is display, falling
// back to the shortest decimal when display is empty.
func FormattedNumber(f float64, display string) Value {
	if display == "" {
		return NumberValue(f)
	}
	return Value{Kind: Number, Num: f, Str: display}
}

// BoolValue returns a Bool rendered as TRUE or FALSE.
func BoolValue(b bool) Value {
	s := "FALSE"
	if b {
		s = "TRUE"
	}
	return Value{Kind: Bool, Flag: b, Str: s}
}

// ValueOf converts a Go value (nil, string, bool, any int or float type).
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return TextValue(x)
	case bool:
		return BoolValue(x)
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	default:
		return TextValue(fmt.Sprint(x))
	}
}

// IsBlank reports whether the cell carries no value.
func (v Value) IsBlank() bool {
	return v.Kind == Blank
}

func (v Value) String() string {
	return v.Str
}

// Row is one non-empty sheet row. Index is zero-based relative to the data
// body: with a header row, Index 0 is sheet row 2. Cells is positional by
// zero-based column; missing cells are Blank.
type Row struct {
	Index int
	Cells []Value
}

// Options controls how sheet rows are surfaced.
type Options struct {
	// HeaderRow excludes the first sheet row from Rows and shifts Index so
	// that 0 is the row after the header.
	HeaderRow bool
}

// RowOffset is the amount to add to Row.Index to get the one-based sheet
// row: 2 when a header row is present, 1 when absent.
func RowOffset(headerRow bool) int {
	if headerRow {
		return 2
	}
	return 1
}

// bodyIndex maps a zero-based sheet row to a data-body index. ok is false
// for the header row itself.
func (o Options) bodyIndex(sheetRow int) (int, bool) {
	if !o.HeaderRow {
		return sheetRow, true
	}
	if sheetRow == 0 {
		return 0, false
	}
	return sheetRow - 1, true
}

// put stores v at col, growing cells as needed.
func put(cells []Value, col int, v Value) []Value {
	if col < 0 {
		return cells
	}
	for len(cells) <= col {
		cells = append(cells, Value{})
	}
	cells[col] = v
	return cells
}

func hasValue(cells []Value) bool {
	for _, c := range cells {
		if !c.IsBlank() {
			return true
		}
	}
	return false
}
