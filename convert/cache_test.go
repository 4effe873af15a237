package convert

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/xlsxtest"
	"github.com/aerissecure/cellfind/workbook"
)

// memBook is an in-memory workbook standing in for a legacy file.
type memBook struct {
	ref    workbook.Ref
	names  []string
	sheets map[string][]workbook.Row
}

func (m *memBook) Ref() workbook.Ref { return m.ref }

func (m *memBook) Sheets() []workbook.SheetRef {
	out := make([]workbook.SheetRef, len(m.names))
	for i, n := range m.names {
		out[i] = workbook.SheetRef{Workbook: m.ref, Name: n}
	}
	return out
}

func (m *memBook) Rows(name string) iter.Seq2[workbook.Row, error] {
	return func(yield func(workbook.Row, error) bool) {
		for _, r := range m.sheets[name] {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (m *memBook) Close() error { return nil }

func legacyOpener(opens *int) Opener {
	return func(ref workbook.Ref, opts workbook.Options) (workbook.Workbook, error) {
		if opts.HeaderRow {
			return nil, errors.New("conversion must read without a header row")
		}
		*opens++
		return &memBook{
			ref:   ref,
			names: []string{"Data", "Notes"},
			sheets: map[string][]workbook.Row{
				"Data": {
					{Index: 0, Cells: []workbook.Value{workbook.TextValue("id"), workbook.TextValue("name")}},
					{Index: 3, Cells: []workbook.Value{{}, workbook.TextValue("needle"), workbook.NumberValue(7)}},
				},
				"Notes": {
					{Index: 1, Cells: []workbook.Value{workbook.BoolValue(true)}},
				},
			},
		}, nil
	}
}

// recorder confirms with the queued answers and records every prompt.
type recorder struct {
	answers []bool
	prompts []Prompt
}

func (r *recorder) Confirm(_ context.Context, p Prompt) (bool, error) {
	r.prompts = append(r.prompts, p)
	if len(r.answers) == 0 {
		return false, nil
	}
	a := r.answers[0]
	r.answers = r.answers[1:]
	return a, nil
}

func legacyFile(t *testing.T, dir, name, content string) workbook.Ref {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	ref, ok := workbook.RefFor(path)
	require.True(t, ok)
	return ref
}

func newCache(t *testing.T, conf Confirmer, opens *int) *Cache {
	t.Helper()
	return &Cache{Dir: filepath.Join(t.TempDir(), "app", "cache"), Confirmer: conf, Open: legacyOpener(opens)}
}

func TestDerivedPath(t *testing.T) {
	c := &Cache{Dir: "app/cache"}
	ref, _ := workbook.RefFor("/data/Report.Q1.xls")
	assert.Equal(t, filepath.Join("app", "cache", "Report.Q1.xlsx"), c.DerivedPath(ref))
	ref, _ = workbook.RefFor("/data/bin.XLSB")
	assert.Equal(t, filepath.Join("app", "cache", "bin.xlsx"), c.DerivedPath(ref))
}

func TestModernPassesThrough(t *testing.T) {
	rec := &recorder{}
	c := &Cache{Dir: t.TempDir(), Confirmer: rec}
	ref, _ := workbook.RefFor("/data/book.xlsx")

	got, err := c.EnsureModern(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
	assert.Empty(t, rec.prompts)
}

func TestConvertThenReuse(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{true, true}}
	c := newCache(t, rec, &opens)
	src := legacyFile(t, t.TempDir(), "old.xls", "legacy bytes")

	first, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, c.DerivedPath(src), first.Path)
	assert.Equal(t, workbook.Modern, first.Format)

	info, err := os.Stat(first.Path)
	require.NoError(t, err)
	mtime := info.ModTime()

	time.Sleep(20 * time.Millisecond)
	second, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err = os.Stat(second.Path)
	require.NoError(t, err)
	assert.Equal(t, mtime, info.ModTime())
	assert.Equal(t, 1, opens)

	require.Len(t, rec.prompts, 2)
	assert.Equal(t, PromptConvert, rec.prompts[0].Kind)
	assert.Equal(t, PromptReuse, rec.prompts[1].Kind)

	entries, err := c.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, src.Path, entries[0].Source)
	assert.Equal(t, first.Path, entries[0].Derived)
}

func TestConvertedContentKeepsAddresses(t *testing.T) {
	opens := 0
	c := newCache(t, Always(true), &opens)
	src := legacyFile(t, t.TempDir(), "old.xlsb", "x")

	got, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)

	wb, err := workbook.Open(got, workbook.Options{})
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Data", sheets[0].Name)
	assert.Equal(t, "Notes", sheets[1].Name)

	var rows []workbook.Row
	for r, err := range wb.Rows("Data") {
		require.NoError(t, err)
		rows = append(rows, r)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[1].Index)
	assert.Equal(t, "needle", rows[1].Cells[1].Str)
	assert.Equal(t, workbook.Number, rows[1].Cells[2].Kind)
	assert.Equal(t, 7.0, rows[1].Cells[2].Num)

	for r, err := range wb.Rows("Notes") {
		require.NoError(t, err)
		assert.Equal(t, 1, r.Index)
		assert.Equal(t, workbook.Bool, r.Cells[0].Kind)
	}
}

func TestDefaultOpenerReadsLegacyFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		xlsxtest.CopyIn(t, xlsxtest.LegacyXLS, dir, "legacy.xls"),
		xlsxtest.WriteXLSB(t, dir, "legacy.xlsb", xlsxtest.Sheet{Name: "Data", Rows: [][]any{
			{"id", "name", "amount"},
			{1, "alpha", 12.5},
			{2, "needle in hay", 40},
			{},
			{3, "Needle", 7},
		}}),
	}
	for _, path := range paths {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c := &Cache{Dir: filepath.Join(t.TempDir(), "cache"), Confirmer: Always(true)}
			src, ok := workbook.RefFor(path)
			require.True(t, ok)

			got, err := c.EnsureModern(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, workbook.Modern, got.Format)
			assert.NotEqual(t, src.Path, got.Path)

			wb, err := workbook.Open(got, workbook.Options{})
			require.NoError(t, err)
			defer wb.Close()
			assert.Equal(t, "Data", wb.Sheets()[0].Name)

			var rows []workbook.Row
			for r, err := range wb.Rows("Data") {
				require.NoError(t, err)
				rows = append(rows, r)
			}
			require.Len(t, rows, 4)
			assert.Equal(t, "name", rows[0].Cells[1].Str)
			assert.Equal(t, 2, rows[2].Index)
			assert.Equal(t, "needle in hay", rows[2].Cells[1].Str)
			assert.Equal(t, 4, rows[3].Index)
			assert.Equal(t, "Needle", rows[3].Cells[1].Str)
			assert.Equal(t, workbook.Number, rows[3].Cells[2].Kind)
			assert.Equal(t, 7.0, rows[3].Cells[2].Num)
		})
	}
}

func TestDeclineConvertWritesNothing(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{false}}
	c := newCache(t, rec, &opens)
	src := legacyFile(t, t.TempDir(), "old.xls", "x")

	_, err := c.EnsureModern(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeclined)
	assert.ErrorIs(t, err, ErrConversion)

	_, statErr := os.Stat(c.DerivedPath(src))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(c.Dir)
	assert.True(t, os.IsNotExist(statErr), "cache dir must not be created")
	assert.Zero(t, opens)
}

func TestDeclineReuse(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{true, false}}
	c := newCache(t, rec, &opens)
	src := legacyFile(t, t.TempDir(), "old.xls", "x")

	_, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	_, err = c.EnsureModern(context.Background(), src)
	assert.ErrorIs(t, err, ErrDeclined)
	assert.FileExists(t, c.DerivedPath(src))
}

func TestNilConfirmerDeclines(t *testing.T) {
	opens := 0
	c := newCache(t, nil, &opens)
	_, err := c.EnsureModern(context.Background(), legacyFile(t, t.TempDir(), "old.xls", "x"))
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestConfirmerError(t *testing.T) {
	boom := errors.New("tty closed")
	opens := 0
	c := newCache(t, ConfirmFunc(func(context.Context, Prompt) (bool, error) { return false, boom }), &opens)
	_, err := c.EnsureModern(context.Background(), legacyFile(t, t.TempDir(), "old.xls", "x"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrConversion)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestUnreadableSource(t *testing.T) {
	c := &Cache{Dir: filepath.Join(t.TempDir(), "cache"), Confirmer: Always(true)}
	src := legacyFile(t, t.TempDir(), "corrupt.xls", "definitely not BIFF")

	_, err := c.EnsureModern(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversion)
	assert.ErrorIs(t, err, workbook.ErrUnreadable)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, src.Path, ce.Source)
	assert.NoFileExists(t, c.DerivedPath(src))
}

func TestFirstWriteWinsWithoutStaleCheck(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{true, true}}
	c := newCache(t, rec, &opens)
	src := legacyFile(t, t.TempDir(), "old.xls", "v1")

	_, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src.Path, []byte("v2 changed"), 0o644))

	_, err = c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, PromptReuse, rec.prompts[1].Kind)
	assert.Equal(t, 1, opens)
}

func TestStaleCheckReconverts(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{true, true, true}}
	c := newCache(t, rec, &opens)
	c.StaleCheck = true
	src := legacyFile(t, t.TempDir(), "old.xls", "v1")

	_, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)

	// Unchanged source is reused.
	_, err = c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, PromptReuse, rec.prompts[1].Kind)

	require.NoError(t, os.WriteFile(src.Path, []byte("v2 changed"), 0o644))
	_, err = c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, rec.prompts, 3)
	assert.Equal(t, PromptConvert, rec.prompts[2].Kind)
	assert.True(t, rec.prompts[2].Stale)
	assert.Equal(t, 2, opens)
}

func TestStaleCheckUnknownCopy(t *testing.T) {
	opens := 0
	rec := &recorder{answers: []bool{true}}
	c := newCache(t, rec, &opens)
	c.StaleCheck = true
	src := legacyFile(t, t.TempDir(), "old.xls", "v1")

	// A copy that predates the manifest cannot be verified.
	require.NoError(t, os.MkdirAll(c.Dir, 0o755))
	require.NoError(t, os.WriteFile(c.DerivedPath(src), []byte("stray"), 0o644))

	_, err := c.EnsureModern(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, rec.prompts, 1)
	assert.True(t, rec.prompts[0].Stale)
}

func TestEntriesEmptyCache(t *testing.T) {
	c := &Cache{Dir: filepath.Join(t.TempDir(), "none")}
	entries, err := c.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StaleCheck = true
	c := New(cfg, Always(true), nil)
	assert.Equal(t, "./app/cache", c.Dir)
	assert.True(t, c.StaleCheck)
	assert.NotNil(t, c.Logger)
}

func TestPromptMessage(t *testing.T) {
	p := Prompt{Kind: PromptConvert, Source: "/x/old.xls", Derived: "app/cache/old.xlsx"}
	assert.Contains(t, p.Message(), "old.xls must be converted")
	p.Stale = true
	assert.Contains(t, p.Message(), "changed since")
	p.Kind = PromptReuse
	assert.Contains(t, p.Message(), "already exists")
	assert.Equal(t, "reuse", p.Kind.String())
}

func TestErrorMessage(t *testing.T) {
	err := failed("a.xls", ErrDeclined)
	assert.Equal(t, "a.xls: conversion declined", err.Error())
	err = failed("a.xls", errors.New("disk full"))
	assert.Equal(t, "cannot convert a.xls: disk full", err.Error())
}
