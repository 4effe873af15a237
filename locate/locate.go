// Package locate moves a workbook's persisted selection and viewport to a
// cell. The change is written back into the workbook file itself.
package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/filelock"
	"github.com/aerissecure/cellfind/internal/logger"
	"github.com/aerissecure/cellfind/notify"
	"github.com/aerissecure/cellfind/workbook"
	"github.com/aerissecure/cellfind/xlsx"
)

// Default margins between the viewport origin and the located cell.
const (
	DefaultRowMargin = 10
	DefaultColMargin = 3
)

// Outcome describes a successful locate.
type Outcome struct {
	Path    string
	Sheet   string
	Active  address.Cell
	TopLeft address.Cell
}

// Locator applies view changes. Calls for the same path are serialized;
// different paths proceed in parallel.
type Locator struct {
	RowMargin int
	ColMargin int
	Logger    logger.Logger

	guard filelock.PathGuard
}

// New builds a Locator from configuration.
func New(cfg *config.Config, log logger.Logger) *Locator {
	return &Locator{
		RowMargin: cfg.RowMargin,
		ColMargin: cfg.ColMargin,
		Logger:    logger.OrNop(log),
	}
}

// NewDefault returns a Locator with the default margins.
func NewDefault(log logger.Logger) *Locator {
	return &Locator{RowMargin: DefaultRowMargin, ColMargin: DefaultColMargin, Logger: logger.OrNop(log)}
}

// Viewport returns the top-left visible cell for target: RowMargin rows up
// and ColMargin columns left, clamped to A1.
func (l *Locator) Viewport(target address.Cell) address.Cell {
	return target.Offset(-l.RowMargin, -l.ColMargin)
}

// Locate runs Apply on its own goroutine. It is never retried.
func (l *Locator) Locate(ref workbook.Ref, sheet string, target address.Cell, opts ...notify.Option[Outcome]) *notify.Task[Outcome] {
	return notify.Go(func() (Outcome, error) {
		return l.Apply(context.Background(), ref, sheet, target)
	}, opts...)
}

// Apply sets the active cell of sheet to target, scrolls so the viewport
// starts at Viewport(target), makes sheet the active tab and saves the
// workbook in place. Every failure is a *NavigationError.
func (l *Locator) Apply(ctx context.Context, ref workbook.Ref, sheet string, target address.Cell) (Outcome, error) {
	log := logger.OrNop(l.Logger)
	fail := func(err error) (Outcome, error) {
		log.Errorf("Locate %s [%s] %s failed: %v", ref.Path, sheet, target, err)
		return Outcome{}, &NavigationError{Path: ref.Path, Sheet: sheet, Err: err}
	}

	if ref.Format != workbook.Modern {
		return fail(fmt.Errorf("%s workbooks must be converted first", ref.Kind))
	}
	if !target.Valid() {
		return fail(fmt.Errorf("%w: %+v", address.ErrInvalidAddress, target))
	}

	release, err := l.guard.Acquire(ctx, ref.Path)
	if err != nil {
		return fail(err)
	}
	defer release()

	wb, err := xlsx.Open(ref.Path)
	if err != nil {
		return fail(err)
	}
	if _, ok := xlsx.SheetIndex(wb, sheet); !ok {
		return fail(sheetNotFound(sheet, xlsx.SheetNames(wb)))
	}

	view := xlsx.View{Active: target, TopLeft: l.Viewport(target)}
	if err := xlsx.SetView(wb, sheet, view); err != nil {
		return fail(err)
	}
	if err := xlsx.Save(wb, ref.Path); err != nil {
		return fail(fmt.Errorf("save: %w", err))
	}

	log.Infof("Located %s [%s] %s (viewport %s)", ref.Name(), sheet, target, view.TopLeft)
	return Outcome{Path: ref.Path, Sheet: sheet, Active: view.Active, TopLeft: view.TopLeft}, nil
}

// IsSheetNotFound reports whether err came from a missing sheet and returns
// its details.
func IsSheetNotFound(err error) (*SheetNotFoundError, bool) {
	var snf *SheetNotFoundError
	ok := errors.As(err, &snf)
	return snf, ok
}
