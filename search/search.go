// Package search scans a folder of workbooks for a keyword. Each workbook is
// scanned by its own task on a bounded pool; a workbook that cannot be read
// is recorded as a failure and never aborts the search.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/logger"
	"github.com/aerissecure/cellfind/notify"
	"github.com/aerissecure/cellfind/workbook"
)

// ErrEmptyKeyword is returned for a zero-length keyword, which would match
// every non-blank cell. Whitespace is matched literally.
var ErrEmptyKeyword = errors.New("empty search keyword")

// Match is one cell whose text contains the keyword.
type Match struct {
	Workbook workbook.Ref
	Sheet    string
	Cell     address.Cell
	Text     string
}

// SheetRef returns the sheet the match was found on.
func (m Match) SheetRef() workbook.SheetRef {
	return workbook.SheetRef{Workbook: m.Workbook, Name: m.Sheet}
}

// Address is the A1 form of the matched cell.
func (m Match) Address() string {
	return m.Cell.String()
}

func (m Match) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", m.Workbook.Path, m.Sheet, m.Cell, m.Text)
}

// Failure records a workbook that could not be scanned.
type Failure struct {
	Workbook workbook.Ref
	Err      error
}

func (f Failure) Error() string {
	return f.Err.Error()
}

// Result is the outcome of one search. Matches are grouped by workbook in
// path order and keep each workbook's sheet, row and column scan order.
type Result struct {
	Folder   string
	Keyword  string
	Matches  []Match
	Failures []Failure
	Files    int
	Elapsed  time.Duration
}

// Opener opens a workbook for scanning.
type Opener func(workbook.Ref, workbook.Options) (workbook.Workbook, error)

// Engine runs searches. The zero value is usable: it scans with
// config-default concurrency, assumes no header row and logs nothing.
type Engine struct {
	// Workers bounds concurrent workbook scans; <= 0 uses the config default.
	Workers int
	// HeaderRow makes row addresses skip a leading header row, so body row
	// index i is reported as sheet row i+2 instead of i+1.
	HeaderRow bool
	Logger    logger.Logger
	// Open defaults to workbook.Open.
	Open Opener
}

// New builds an Engine from configuration.
func New(cfg *config.Config, log logger.Logger) *Engine {
	return &Engine{
		Workers:   cfg.Workers(),
		HeaderRow: cfg.HeaderRow,
		Logger:    logger.OrNop(log),
	}
}

// Search starts a search and returns immediately. The returned task
// completes once every discovered workbook has been scanned; there is no way
// to stop it early.
func (e *Engine) Search(folder, keyword string, opts ...notify.Option[Result]) *notify.Task[Result] {
	return notify.Go(func() (Result, error) {
		return e.Run(folder, keyword)
	}, opts...)
}

// Run searches synchronously. Only an empty keyword or an unreadable folder
// fail the whole search.
func (e *Engine) Run(folder, keyword string) (Result, error) {
	start := time.Now()
	log := logger.OrNop(e.Logger)
	res := Result{Folder: folder, Keyword: keyword}

	if keyword == "" {
		return res, ErrEmptyKeyword
	}
	refs, err := workbook.Discover(folder)
	if err != nil {
		return res, err
	}
	res.Files = len(refs)
	log.Infof("Searching %d workbook(s) in %s for %q", len(refs), folder, keyword)

	needle := cases.Fold().String(keyword)
	opts := workbook.Options{HeaderRow: e.HeaderRow}

	// One slot per workbook keeps the merged order independent of which
	// task finishes first.
	slots := make([][]Match, len(refs))
	var (
		mu       sync.Mutex
		failures []Failure
	)

	var g errgroup.Group
	g.SetLimit(e.workers())
	for i, ref := range refs {
		g.Go(func() error {
			matches, err := e.scan(ref, needle, opts)
			if err != nil {
				log.Warnf("Skipping %s: %v", ref.Path, err)
				mu.Lock()
				failures = append(failures, Failure{Workbook: ref, Err: err})
				mu.Unlock()
				return nil
			}
			log.Debugf("Scanned %s: %d match(es)", ref.Name(), len(matches))
			slots[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		res.Matches = append(res.Matches, s...)
	}
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Workbook.Path < failures[j].Workbook.Path
	})
	res.Failures = failures
	res.Elapsed = time.Since(start)
	log.Infof("Found %d match(es) in %d workbook(s), %d unreadable (%s)",
		len(res.Matches), len(refs)-len(failures), len(failures), res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return config.DefaultConfig().Workers()
}

func (e *Engine) open(ref workbook.Ref, opts workbook.Options) (workbook.Workbook, error) {
	if e.Open != nil {
		return e.Open(ref, opts)
	}
	return workbook.Open(ref, opts)
}

// scan returns every match in one workbook. needle must already be case
// folded. Column 0 holds row labels and is never matched. A read error part
// way through discards the workbook's matches.
func (e *Engine) scan(ref workbook.Ref, needle string, opts workbook.Options) ([]Match, error) {
	wb, err := e.open(ref, opts)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	fold := cases.Fold()
	offset := workbook.RowOffset(opts.HeaderRow)
	var matches []Match
	for _, sheet := range wb.Sheets() {
		for row, err := range wb.Rows(sheet.Name) {
			if err != nil {
				return nil, err
			}
			for col, v := range row.Cells {
				if col == 0 || v.IsBlank() {
					continue
				}
				if strings.Contains(fold.String(v.Str), needle) {
					matches = append(matches, Match{
						Workbook: ref,
						Sheet:    sheet.Name,
						Cell:     address.Cell{Row: row.Index + offset, Col: col + 1},
						Text:     v.Str,
					})
				}
			}
		}
	}
	return matches, nil
}
