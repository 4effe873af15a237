// Package report writes search results for people and programs.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/aerissecure/cellfind/search"
)

// Format selects an output encoding.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	HTML     Format = "html"
	JSON     Format = "json"
	CSV      Format = "csv"
)

// Formats lists the accepted values in flag order.
var Formats = []Format{Text, Markdown, HTML, JSON, CSV}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format '%s': format must be one of %s", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// MatchRecord is the wire form of one match.
type MatchRecord struct {
	File  string `json:"file"`
	Sheet string `json:"sheet"`
	Cell  string `json:"cell"`
	Text  string `json:"text"`
}

// FailureRecord is the wire form of one unreadable workbook.
type FailureRecord struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Document is the JSON shape of a search result.
type Document struct {
	Folder    string          `json:"folder"`
	Keyword   string          `json:"keyword"`
	Files     int             `json:"files"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Matches   []MatchRecord   `json:"matches"`
	Failures  []FailureRecord `json:"failures"`
}

// NewDocument flattens res. Slices are never nil so JSON shows [] not null.
func NewDocument(res search.Result) Document {
	doc := Document{
		Folder:    res.Folder,
		Keyword:   res.Keyword,
		Files:     res.Files,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Matches:   make([]MatchRecord, 0, len(res.Matches)),
		Failures:  make([]FailureRecord, 0, len(res.Failures)),
	}
	for _, m := range res.Matches {
		doc.Matches = append(doc.Matches, MatchRecord{
			File:  m.Workbook.Path,
			Sheet: m.Sheet,
			Cell:  m.Address(),
			Text:  m.Text,
		})
	}
	for _, f := range res.Failures {
		doc.Failures = append(doc.Failures, FailureRecord{File: f.Workbook.Path, Error: f.Err.Error()})
	}
	return doc
}

// Write encodes res to w in format.
func Write(w io.Writer, format Format, res search.Result) error {
	switch format {
	case Text:
		return writeText(w, res)
	case Markdown:
		_, err := io.WriteString(w, MarkdownString(res))
		return err
	case HTML:
		return writeHTML(w, res)
	case JSON:
		return writeJSON(w, res)
	case CSV:
		return writeCSV(w, res)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func summary(res search.Result) string {
	return fmt.Sprintf("%d match(es) for %q in %d workbook(s), %d unreadable, %s",
		len(res.Matches), res.Keyword, res.Files, len(res.Failures), res.Elapsed.Round(time.Millisecond))
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeText(w io.Writer, res search.Result) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "FILE", "SHEET", "CELL", "TEXT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, m := range res.Matches {
		t.Row(fmt.Sprint(i+1), m.Workbook.Name(), m.Sheet, m.Address(), oneLine(m.Text))
	}

	var b strings.Builder
	if len(res.Matches) > 0 {
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	for _, f := range res.Failures {
		fmt.Fprintf(&b, "unreadable: %s: %v\n", f.Workbook.Path, f.Err)
	}
	b.WriteString(summary(res))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// MarkdownString renders res as a GFM table.
func MarkdownString(res search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Matches for `%s`\n\n", res.Keyword)
	if len(res.Matches) == 0 {
		b.WriteString("No matches.\n")
	} else {
		b.WriteString("| File | Sheet | Cell | Text |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, m := range res.Matches {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				mdCell(m.Workbook.Path), mdCell(m.Sheet), m.Address(), mdCell(m.Text))
		}
	}
	if len(res.Failures) > 0 {
		b.WriteString("\n## Unreadable workbooks\n\n")
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Workbook.Path, mdCell(f.Err.Error()))
		}
	}
	fmt.Fprintf(&b, "\n_%s_\n", summary(res))
	return b.String()
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

func writeHTML(w io.Writer, res search.Result) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(MarkdownString(res)), &body); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>cellfind: %s</title></head><body>\n%s</body></html>\n",
		htmlTitle(res.Keyword), body.String())
	return err
}

func writeJSON(w io.Writer, res search.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, res search.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "sheet", "cell", "text"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, m := range res.Matches {
		if err := cw.Write([]string{m.Workbook.Path, m.Sheet, m.Address(), m.Text}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mdCell escapes text for a Markdown table cell.
func mdCell(s string) string {
	s = oneLine(s)
	r := strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;", "`", "\\`")
	return r.Replace(s)
}

func htmlTitle(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
