package convert

import (
	"context"
	"fmt"
	"path/filepath"
)

// PromptKind says which decision a Prompt asks for.
type PromptKind int

const (
	// PromptConvert asks to write a new modern copy.
	PromptConvert PromptKind = iota
	// PromptReuse asks to open an existing modern copy.
	PromptReuse
)

func (k PromptKind) String() string {
	if k == PromptReuse {
		return "reuse"
	}
	return "convert"
}

// Prompt describes a conversion decision put to the user.
type Prompt struct {
	Kind    PromptKind
	Source  string
	Derived string
	// Stale is set on PromptConvert when a cached copy exists but no longer
	// matches its source.
	Stale bool
}

// Message is the question shown to the user.
func (p Prompt) Message() string {
	src, dst := filepath.Base(p.Source), p.Derived
	switch {
	case p.Kind == PromptReuse:
		return fmt.Sprintf("A converted copy of %s already exists at %s. Open it?", src, dst)
	case p.Stale:
		return fmt.Sprintf("%s changed since it was converted. Convert it again to %s?", src, dst)
	default:
		return fmt.Sprintf("%s must be converted to .xlsx before it can be navigated. Write %s?", src, dst)
	}
}

// Confirmer asks the user to approve a Prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// Always answers every prompt with answer.
func Always(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) (bool, error) {
		return answer, nil
	})
}
