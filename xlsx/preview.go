package xlsx

import (
	"github.com/aerissecure/cellfind/address"
)

// Preview renders the viewport a locate of target would show, as HTML.
func Preview(path, sheet string, target address.Cell, rowMargin, colMargin int) (string, error) {
	wb, err := Open(path)
	if err != nil {
		return "", err
	}
	rs, err := ParseWindow(wb, sheet, WindowAround(target, rowMargin, colMargin))
	if err != nil {
		return "", err
	}
	return RenderHTML(rs), nil
}
