// Package address converts between one-based row/column pairs and A1 style
// cell references ("C6" is row 6, column 3).
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// ErrInvalidAddress is returned by Decode and Parse for malformed references.
var ErrInvalidAddress = errors.New("invalid cell address")

// maxLetters bounds the column part so the base-26 value fits in a uint32.
const maxLetters = 6

// Cell is a one-based cell position.
type Cell struct {
	Row int
	Col int
}

// Valid reports whether both coordinates are >= 1.
func (c Cell) Valid() bool {
	return c.Row >= 1 && c.Col >= 1
}

// String returns the A1 form, or "" when c is not valid.
func (c Cell) String() string {
	return Encode(c.Row, c.Col)
}

// Offset moves c by the given deltas, clamping both coordinates to 1.
func (c Cell) Offset(dRow, dCol int) Cell {
	return Cell{Row: max(1, c.Row+dRow), Col: max(1, c.Col+dCol)}
}

// Column returns the letters for a one-based column (1 -> "A", 27 -> "AA").
func Column(col int) string {
	if col < 1 {
		return ""
	}
	return reference.IndexToColumn(uint32(col - 1))
}

// Encode returns the A1 reference for a one-based row and column.
// It returns "" if either coordinate is below 1.
func Encode(row, col int) string {
	if row < 1 || col < 1 {
		return ""
	}
	return Column(col) + strconv.Itoa(row)
}

// Decode parses an A1 reference into a one-based row and column. Column
// letters are case-insensitive; absolute markers and sheet prefixes are not
// accepted.
func Decode(s string) (row, col int, err error) {
	i := 0
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	letters, digits := s[:i], s[i:]
	if letters == "" || digits == "" || len(letters) > maxLetters {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	row, err = strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	col = int(reference.ColumnToIndex(strings.ToUpper(letters))) + 1
	return row, col, nil
}

// Parse is Decode returning a Cell.
func Parse(s string) (Cell, error) {
	row, col, err := Decode(s)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Row: row, Col: col}, nil
}

// MustParse is Parse for constant references; it panics on error.
func MustParse(s string) Cell {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
