package cellfind

import (
	"github.com/aerissecure/cellfind/locate"
	"github.com/aerissecure/cellfind/workbook"
)

// Opened describes a completed open of a match.
type Opened struct {
	// Source is the workbook the match was found in.
	Source workbook.Ref
	// Target is the workbook that was navigated and launched; it differs
	// from Source when Source had to be converted.
	Target  workbook.Ref
	Outcome locate.Outcome
	// Launched is false when no launcher was configured.
	Launched bool
}

// Converted reports whether a modern copy stood in for the source.
func (o Opened) Converted() bool {
	return o.Source.Path != o.Target.Path
}
