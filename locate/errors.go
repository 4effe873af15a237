package locate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// ErrNavigation tags every failed locate.
var ErrNavigation = errors.New("navigation failed")

// ErrSheetNotFound is matched by a *SheetNotFoundError.
var ErrSheetNotFound = errors.New("sheet not found")

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 3

// NavigationError reports a locate that could not open, change or save the
// workbook.
type NavigationError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("cannot navigate %s [%s]: %v", e.Path, e.Sheet, e.Err)
}

func (e *NavigationError) Unwrap() []error {
	return []error{ErrNavigation, e.Err}
}

// SheetNotFoundError names the missing sheet and, when one is close, the
// sheet the caller probably meant.
type SheetNotFoundError struct {
	Sheet      string
	Available  []string
	Suggestion string
}

func (e *SheetNotFoundError) Error() string {
	msg := fmt.Sprintf("sheet %q not found", e.Sheet)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *SheetNotFoundError) Unwrap() error {
	return ErrSheetNotFound
}

func sheetNotFound(sheet string, available []string) *SheetNotFoundError {
	return &SheetNotFoundError{Sheet: sheet, Available: available, Suggestion: suggest(sheet, available)}
}

// suggest returns the available name closest to sheet, ignoring case, or ""
// when nothing is within maxSuggestDistance.
func suggest(sheet string, available []string) string {
	best, bestDist := "", maxSuggestDistance+1
	want := []rune(strings.ToLower(sheet))
	for _, name := range available {
		d := levenshtein.DistanceForStrings(want, []rune(strings.ToLower(name)), levenshtein.DefaultOptions)
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}
