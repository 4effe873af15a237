package locate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerissecure/cellfind/address"
	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/xlsxtest"
	"github.com/aerissecure/cellfind/notify"
	"github.com/aerissecure/cellfind/workbook"
	"github.com/aerissecure/cellfind/xlsx"
)

func book(t *testing.T) workbook.Ref {
	t.Helper()
	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "Summary", Rows: [][]any{{"a", "b"}}},
		xlsxtest.Sheet{Name: "Detail", Rows: [][]any{{"x"}, {"y", "needle"}}},
	)
	ref, ok := workbook.RefFor(path)
	require.True(t, ok)
	return ref
}

func TestViewportClamping(t *testing.T) {
	l := NewDefault(nil)
	tests := []struct {
		target, want address.Cell
	}{
		{address.Cell{Row: 3, Col: 2}, address.Cell{Row: 1, Col: 1}},
		{address.Cell{Row: 50, Col: 50}, address.Cell{Row: 40, Col: 47}},
		{address.Cell{Row: 11, Col: 4}, address.Cell{Row: 1, Col: 1}},
		{address.Cell{Row: 12, Col: 5}, address.Cell{Row: 2, Col: 2}},
		{address.Cell{Row: 1, Col: 100}, address.Cell{Row: 1, Col: 97}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Viewport(tt.target), "target %s", tt.target)
	}
}

func TestApplyPersistsView(t *testing.T) {
	ref := book(t)
	l := NewDefault(nil)

	target := address.Cell{Row: 50, Col: 50}
	out, err := l.Apply(context.Background(), ref, "Detail", target)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Path: ref.Path, Sheet: "Detail", Active: target, TopLeft: address.MustParse("AU40")}, out)

	wb, err := xlsx.Open(ref.Path)
	require.NoError(t, err)
	v, ok := xlsx.ReadView(wb, "Detail")
	require.True(t, ok)
	assert.Equal(t, "AX50", v.Active.String())
	assert.Equal(t, "AU40", v.TopLeft.String())
	assert.Equal(t, "Detail", xlsx.ActiveSheet(wb))

	// Content survives the rewrite.
	assert.Equal(t, "needle", wb.Sheets()[1].Cell("B2").GetString())
}

func TestApplyLeavesFolderUntouched(t *testing.T) {
	ref := book(t)
	_, err := NewDefault(nil).Apply(context.Background(), ref, "Detail", address.Cell{Row: 2, Col: 2})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(ref.Path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"book.xlsx"}, names)
}

func TestApplyClampedTarget(t *testing.T) {
	ref := book(t)
	out, err := NewDefault(nil).Apply(context.Background(), ref, "Summary", address.Cell{Row: 3, Col: 2})
	require.NoError(t, err)
	assert.Equal(t, "A1", out.TopLeft.String())

	wb, err := xlsx.Open(ref.Path)
	require.NoError(t, err)
	v, ok := xlsx.ReadView(wb, "Summary")
	require.True(t, ok)
	assert.Equal(t, "B3", v.Active.String())
	assert.Equal(t, "A1", v.TopLeft.String())
}

func TestApplySheetNotFound(t *testing.T) {
	ref := book(t)
	_, err := NewDefault(nil).Apply(context.Background(), ref, "detail ", address.Cell{Row: 1, Col: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.ErrorIs(t, err, ErrNavigation)

	snf, ok := IsSheetNotFound(err)
	require.True(t, ok)
	assert.Equal(t, "Detail", snf.Suggestion)
	assert.Equal(t, []string{"Summary", "Detail"}, snf.Available)
	assert.Contains(t, err.Error(), `did you mean "Detail"`)
}

func TestApplyRejectsLegacy(t *testing.T) {
	ref, _ := workbook.RefFor(filepath.Join(t.TempDir(), "old.xls"))
	_, err := NewDefault(nil).Apply(context.Background(), ref, "S", address.Cell{Row: 1, Col: 1})
	assert.ErrorIs(t, err, ErrNavigation)
	assert.Contains(t, err.Error(), "converted first")
}

func TestApplyInvalidTarget(t *testing.T) {
	ref := book(t)
	_, err := NewDefault(nil).Apply(context.Background(), ref, "Summary", address.Cell{})
	assert.ErrorIs(t, err, address.ErrInvalidAddress)
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestApplyMissingFile(t *testing.T) {
	ref, _ := workbook.RefFor(filepath.Join(t.TempDir(), "gone.xlsx"))
	_, err := NewDefault(nil).Apply(context.Background(), ref, "S", address.Cell{Row: 1, Col: 1})
	var ne *NavigationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, ref.Path, ne.Path)
	assert.NotErrorIs(t, err, ErrSheetNotFound)
}

func TestApplyCorruptFile(t *testing.T) {
	path := xlsxtest.Garbage(t, t.TempDir(), "bad.xlsx")
	ref, _ := workbook.RefFor(path)
	_, err := NewDefault(nil).Apply(context.Background(), ref, "S", address.Cell{Row: 1, Col: 1})
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestLocateAsync(t *testing.T) {
	ref := book(t)
	var got notify.Result[Outcome]
	task := NewDefault(nil).Locate(ref, "Detail", address.MustParse("B2"), notify.OnComplete(func(r notify.Result[Outcome]) {
		got = r
	}))
	out, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B2", out.Active.String())
	assert.True(t, got.OK())
	assert.Equal(t, out, got.Value)
}

func TestLocateAsyncFailure(t *testing.T) {
	ref := book(t)
	task := NewDefault(nil).Locate(ref, "Nope", address.MustParse("A1"))
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestConcurrentLocatesSamePath(t *testing.T) {
	ref := book(t)
	l := NewDefault(nil)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sheet := "Summary"
			if i%2 == 1 {
				sheet = "Detail"
			}
			_, errs[i] = l.Apply(context.Background(), ref, sheet, address.Cell{Row: 20 + i, Col: 5})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	wb, err := xlsx.Open(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Detail"}, xlsx.SheetNames(wb))
}

func TestSuggest(t *testing.T) {
	names := []string{"Revenue 2023", "Costs", "Summary"}
	assert.Equal(t, "Costs", suggest("cost", names))
	assert.Equal(t, "Revenue 2023", suggest("Revenue 2024", names))
	assert.Equal(t, "", suggest("Completely different", names))
	assert.Equal(t, "", suggest("x", nil))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RowMargin = 5
	l := New(cfg, nil)
	assert.Equal(t, address.Cell{Row: 1, Col: 4}, l.Viewport(address.Cell{Row: 6, Col: 7}))
}
