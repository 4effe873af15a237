// Package cellfind wires search, conversion, navigation and the OS launcher
// into the find-then-jump flow: search a folder, pick a match, convert it if
// it is a legacy workbook, move the workbook's view to the cell and open it.
package cellfind

import (
	"context"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/convert"
	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/logger"
	"github.com/aerissecure/cellfind/locate"
	"github.com/aerissecure/cellfind/notify"
	"github.com/aerissecure/cellfind/opener"
	"github.com/aerissecure/cellfind/search"
	"github.com/aerissecure/cellfind/workbook"
)

// Launcher opens a file in its default application.
type Launcher interface {
	Open(path string) error
}

// App holds one instance of every component.
type App struct {
	Config   *config.Config
	Search   *search.Engine
	Cache    *convert.Cache
	Locator  *locate.Locator
	Launcher Launcher // nil skips launching
	Logger   logger.Logger
}

// New builds an App from configuration. confirmer gates every conversion.
func New(cfg *config.Config, confirmer convert.Confirmer, log logger.Logger) *App {
	log = logger.OrNop(log)
	return &App{
		Config:   cfg,
		Search:   search.New(cfg, log),
		Cache:    convert.New(cfg, confirmer, log),
		Locator:  locate.New(cfg, log),
		Launcher: opener.New(),
		Logger:   log,
	}
}

// Find starts a search; see search.Engine.Search.
func (a *App) Find(folder, keyword string, opts ...notify.Option[search.Result]) *notify.Task[search.Result] {
	return a.Search.Search(folder, keyword, opts...)
}

// Open jumps to cell on sheet of ref and launches the workbook. A declined
// conversion stops the flow before anything is written or launched.
func (a *App) Open(ctx context.Context, ref workbook.Ref, sheet string, cell address.Cell) (Opened, error) {
	log := logger.OrNop(a.Logger)
	res := Opened{Source: ref}

	target, err := a.Cache.EnsureModern(ctx, ref)
	if err != nil {
		return res, err
	}
	res.Target = target

	out, err := a.Locator.Apply(ctx, target, sheet, cell)
	if err != nil {
		return res, err
	}
	res.Outcome = out

	if a.Launcher == nil {
		return res, nil
	}
	if err := a.Launcher.Open(target.Path); err != nil {
		return res, err
	}
	res.Launched = true
	log.Debugf("Launched %s", target.Path)
	return res, nil
}

// OpenMatch is Open for a search match.
func (a *App) OpenMatch(ctx context.Context, m search.Match) (Opened, error) {
	return a.Open(ctx, m.Workbook, m.Sheet, m.Cell)
}

// OpenAsync runs OpenMatch on its own goroutine and reports through the
// returned task.
func (a *App) OpenAsync(m search.Match, opts ...notify.Option[Opened]) *notify.Task[Opened] {
	return notify.Go(func() (Opened, error) {
		return a.OpenMatch(context.Background(), m)
	}, opts...)
}
