// Package workbook opens spreadsheet files of every supported container
// (.xlsx/.xlsm, .xls, .xlsb) and exposes their sheets as rows of cell values
// for scanning. Readers are read-only.
package workbook

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnreadable marks files that are missing, corrupt, encrypted or not a
// recognized spreadsheet container.
var ErrUnreadable = errors.New("unreadable workbook")

// ErrNoSheet is returned by Rows for a sheet name the workbook lacks.
var ErrNoSheet = errors.New("no such sheet")

// UnreadableError carries the path and underlying cause.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("unreadable workbook %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() []error {
	return []error{ErrUnreadable, e.Err}
}

// Unreadable wraps err as an *UnreadableError for path unless it already is one.
func Unreadable(path string, err error) error {
	return unreadable(path, err)
}

func unreadable(path string, err error) error {
	var ue *UnreadableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnreadableError{Path: path, Err: err}
}

// Workbook is an opened, read-only workbook.
type Workbook interface {
	// Ref returns the file this workbook was opened from.
	Ref() Ref
	// Sheets lists the sheets in workbook order.
	Sheets() []SheetRef
	// Rows yields the named sheet's non-empty rows in on-disk order. The
	// sequence is single-use; call Rows again to re-read.
	Rows(sheet string) iter.Seq2[Row, error]
	// Close releases file handles.
	Close() error
}

// Open opens ref with the reader for its container kind.
func Open(ref Ref, opts Options) (Workbook, error) {
	if _, err := os.Stat(ref.Path); err != nil {
		return nil, unreadable(ref.Path, err)
	}
	switch ref.Kind {
	case KindXLSX:
		return openXLSX(ref, opts)
	case KindXLS:
		return openXLS(ref, opts)
	case KindXLSB:
		return openXLSB(ref, opts)
	default:
		return nil, unreadable(ref.Path, fmt.Errorf("unsupported format %q", ref.Kind))
	}
}

// OpenPath is Open for a bare path.
func OpenPath(path string, opts Options) (Workbook, error) {
	ref, ok := RefFor(path)
	if !ok {
		return nil, unreadable(path, errors.New("not a spreadsheet file"))
	}
	return Open(ref, opts)
}

// ListSheets opens ref just long enough to list its sheets.
func ListSheets(ref Ref) ([]SheetRef, error) {
	wb, err := Open(ref, Options{})
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.Sheets(), nil
}

// Discover lists the direct children of dir whose extension is a recognized
// spreadsheet format, sorted by path. Subdirectories are not descended into.
// Office lock files ("~$Book.xlsx") are skipped.
func Discover(dir string) ([]Ref, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	refs := make([]Ref, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || isOwnerFile(entry.Name()) {
			continue
		}
		if ref, ok := RefFor(filepath.Join(dir, entry.Name())); ok {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

func isOwnerFile(name string) bool {
	return strings.HasPrefix(name, "~$")
}

// guard converts a panic inside a third-party parser into an error.
func guard(path string, err *error) {
	if r := recover(); r != nil {
		*err = unreadable(path, fmt.Errorf("parser panic: %v", r))
	}
}

// sheetRefs builds SheetRefs for names in order.
func sheetRefs(ref Ref, names []string) []SheetRef {
	out := make([]SheetRef, len(names))
	for i, name := range names {
		out[i] = SheetRef{Workbook: ref, Name: name}
	}
	return out
}

func noSheet(ref Ref, sheet string) error {
	return fmt.Errorf("%s: %w: %q", ref.Path, ErrNoSheet, sheet)
}
