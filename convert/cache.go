// Package convert keeps modern (.xlsx) copies of legacy workbooks in a cache
// directory. A copy is written only after the user confirms, and an
// existing copy is reused as-is unless stale checking is enabled.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/filelock"
	"github.com/aerissecure/cellfind/internal/logger"
	"github.com/aerissecure/cellfind/workbook"
	"github.com/aerissecure/cellfind/xlsx"
)

// Opener opens a workbook for reading.
type Opener func(workbook.Ref, workbook.Options) (workbook.Workbook, error)

// Cache converts legacy workbooks into Dir.
type Cache struct {
	// Dir holds derived workbooks and the manifest.
	Dir string
	// Confirmer approves every write and every reuse. A nil Confirmer
	// declines everything.
	Confirmer Confirmer
	// StaleCheck treats a cached copy whose source fingerprint changed as
	// absent. Without it the first conversion wins forever.
	StaleCheck bool
	Logger     logger.Logger
	// Open defaults to workbook.Open.
	Open Opener

	guard filelock.PathGuard
}

// New builds a Cache from configuration.
func New(cfg *config.Config, confirmer Confirmer, log logger.Logger) *Cache {
	return &Cache{
		Dir:        cfg.CacheDir,
		Confirmer:  confirmer,
		StaleCheck: cfg.StaleCheck,
		Logger:     logger.OrNop(log),
	}
}

// DerivedPath is where the modern copy of ref lives: the source base name
// with a .xlsx extension, inside Dir.
func (c *Cache) DerivedPath(ref workbook.Ref) string {
	base := filepath.Base(ref.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + workbook.ModernExt
	return filepath.Join(c.Dir, base)
}

// EnsureModern returns a modern workbook for ref. Modern refs are returned
// unchanged. For a legacy ref the user is asked either to reuse the cached
// copy or to convert; declining yields an error matching ErrDeclined.
func (c *Cache) EnsureModern(ctx context.Context, ref workbook.Ref) (workbook.Ref, error) {
	switch ref.Format {
	case workbook.Modern:
		return ref, nil
	case workbook.Legacy:
	default:
		return workbook.Ref{}, failed(ref.Path, fmt.Errorf("unsupported format %s", ref.Kind))
	}

	log := logger.OrNop(c.Logger)
	derived := c.DerivedPath(ref)

	release, err := c.guard.Acquire(ctx, derived)
	if err != nil {
		return workbook.Ref{}, failed(ref.Path, err)
	}
	defer release()

	fresh, stale, err := c.lookup(ctx, ref, derived)
	if err != nil {
		return workbook.Ref{}, failed(ref.Path, err)
	}

	if fresh {
		if err := c.confirm(ctx, Prompt{Kind: PromptReuse, Source: ref.Path, Derived: derived}); err != nil {
			return workbook.Ref{}, failed(ref.Path, err)
		}
		log.Infof("Reusing cached %s for %s", derived, ref.Path)
		return modernRef(derived), nil
	}

	if err := c.confirm(ctx, Prompt{Kind: PromptConvert, Source: ref.Path, Derived: derived, Stale: stale}); err != nil {
		return workbook.Ref{}, failed(ref.Path, err)
	}
	if err := c.convert(ctx, ref, derived); err != nil {
		return workbook.Ref{}, failed(ref.Path, err)
	}
	return modernRef(derived), nil
}

// lookup reports whether derived can be reused. stale is set when a copy
// exists but StaleCheck rejected it.
func (c *Cache) lookup(ctx context.Context, ref workbook.Ref, derived string) (fresh, stale bool, err error) {
	if _, err := os.Stat(derived); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, false, nil
		}
		return false, false, err
	}
	if !c.StaleCheck {
		return true, false, nil
	}

	m, err := OpenManifest(c.manifestPath())
	if err != nil {
		return false, false, err
	}
	defer m.Close()

	entry, err := m.Get(ctx, ref.Path)
	if err != nil {
		return false, false, err
	}
	if entry == nil || entry.Derived != derived {
		return false, true, nil
	}
	fp, err := FingerprintFile(ref.Path)
	if err != nil {
		return false, false, workbook.Unreadable(ref.Path, err)
	}
	if fp.Sum != entry.Fingerprint.Sum {
		logger.OrNop(c.Logger).Infof("%s changed since %s", ref.Path, entry.ConvertedAt.Local().Format(time.DateTime))
		return false, true, nil
	}
	return true, false, nil
}

func (c *Cache) confirm(ctx context.Context, p Prompt) error {
	if c.Confirmer == nil {
		return ErrDeclined
	}
	ok, err := c.Confirmer.Confirm(ctx, p)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		logger.OrNop(c.Logger).Infof("Declined to %s %s", p.Kind, p.Source)
		return ErrDeclined
	}
	return nil
}

// convert reads every sheet of ref and writes it to derived, then records
// the conversion in the manifest.
func (c *Cache) convert(ctx context.Context, ref workbook.Ref, derived string) error {
	log := logger.OrNop(c.Logger)
	start := time.Now()

	// Read the source before anything touches the cache directory.
	fp, err := FingerprintFile(ref.Path)
	if err != nil {
		return workbook.Unreadable(ref.Path, err)
	}
	sheets, err := c.readAll(ref)
	if err != nil {
		return err
	}

	if err := xlsx.WriteFile(derived, sheets); err != nil {
		return err
	}
	log.Infof("Converted %s -> %s (%d sheet(s), %s)", ref.Path, derived, len(sheets), time.Since(start).Round(time.Millisecond))

	if err := c.record(ctx, Entry{Source: ref.Path, Derived: derived, Fingerprint: fp, ConvertedAt: time.Now()}); err != nil {
		log.Warnf("Converted %s but could not update the manifest: %v", ref.Path, err)
	}
	return nil
}

// readAll loads every sheet with no header row, so row indices are sheet
// positions and each cell is written back to the same address.
func (c *Cache) readAll(ref workbook.Ref) ([]xlsx.Sheet, error) {
	open := c.Open
	if open == nil {
		open = workbook.Open
	}
	wb, err := open(ref, workbook.Options{HeaderRow: false})
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	var sheets []xlsx.Sheet
	for _, s := range wb.Sheets() {
		sheet := xlsx.Sheet{Name: s.Name}
		for row, err := range wb.Rows(s.Name) {
			if err != nil {
				return nil, err
			}
			sheet.Rows = append(sheet.Rows, row)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func (c *Cache) record(ctx context.Context, e Entry) error {
	m, err := OpenManifest(c.manifestPath())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Put(ctx, e)
}

// Entries lists recorded conversions. An empty or missing cache yields none.
func (c *Cache) Entries(ctx context.Context) ([]*Entry, error) {
	if _, err := os.Stat(c.manifestPath()); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	m, err := OpenManifest(c.manifestPath())
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.List(ctx)
}

func (c *Cache) manifestPath() string {
	return filepath.Join(c.Dir, ManifestFile)
}

func modernRef(path string) workbook.Ref {
	ref, _ := workbook.RefFor(path)
	return ref
}
