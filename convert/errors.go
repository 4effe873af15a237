package convert

import (
	"errors"
	"fmt"
)

// ErrConversion tags every failure to produce a modern copy, including a
// declined confirmation.
var ErrConversion = errors.New("conversion failed")

// ErrDeclined means the user said no; nothing was written or opened.
var ErrDeclined = errors.New("conversion declined")

// Error reports a failed or declined conversion of Source.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrDeclined) {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("cannot convert %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

func failed(source string, err error) error {
	return &Error{Source: source, Err: err}
}
