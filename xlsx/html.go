package xlsx

import (
	"fmt"
	"html"
	"strings"

	"github.com/aerissecure/cellfind/address"
)

const headingWidthPx = 40

// TargetClass is the CSS class carried by the located cell.
const TargetClass = "target"

// defaults are the style values shared by more than half the styled cells;
// they go on the base td rule so per-cell classes only carry differences.
type defaults struct {
	fontFamily  string
	fontSize    float64
	fontColor   string
	bgColor     string
	borderColor string
	hAlign      string
	vAlign      string
	wrap        bool
}

// mostCommon returns the most frequent key when it covers more than half of
// total, else the zero value.
func mostCommon[K comparable](counts map[K]int, total int) K {
	var best K
	n := 0
	for k, c := range counts {
		if c > n {
			best, n = k, c
		}
	}
	if n <= total/2 {
		var zero K
		return zero
	}
	return best
}

func computeDefaults(sheets []RenderSheet) (defaults, []CellStyle) {
	fontFamily := map[string]int{}
	fontSize := map[float64]int{}
	fontColor := map[string]int{}
	bgColor := map[string]int{}
	borderColor := map[string]int{}
	hAlign := map[string]int{}
	vAlign := map[string]int{}
	wrap := map[bool]int{}

	seen := map[CellStyle]bool{}
	var styles []CellStyle
	total := 0
	for _, sheet := range sheets {
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				if cell == nil {
					continue
				}
				total++
				st := cell.Style
				if st.FontFamily != "" {
					fontFamily[st.FontFamily]++
				}
				if st.FontSizePt > 0 {
					fontSize[st.FontSizePt]++
				}
				if st.FontColor != "" {
					fontColor[st.FontColor]++
				}
				if st.BackgroundColor != "" {
					bgColor[st.BackgroundColor]++
				}
				if st.BorderColor != "" {
					borderColor[st.BorderColor]++
				}
				if st.HorizontalAlign != "" {
					hAlign[st.HorizontalAlign]++
				}
				if st.VerticalAlign != "" {
					vAlign[st.VerticalAlign]++
				}
				wrap[st.WrapText]++
				if !seen[st] {
					seen[st] = true
					styles = append(styles, st)
				}
			}
		}
	}
	d := defaults{
		fontFamily:  mostCommon(fontFamily, total),
		fontSize:    mostCommon(fontSize, total),
		fontColor:   mostCommon(fontColor, total),
		bgColor:     mostCommon(bgColor, total),
		borderColor: mostCommon(borderColor, total),
		hAlign:      mostCommon(hAlign, total),
		vAlign:      mostCommon(vAlign, total),
		wrap:        mostCommon(wrap, total),
	}
	return d, styles
}

// RenderHTML renders preview windows as HTML tables with A1 headings. The
// target cell carries the TargetClass class.
func RenderHTML(sheets ...RenderSheet) string {
	var b strings.Builder
	d, styles := computeDefaults(sheets)
	classes := make(map[CellStyle]string, len(styles))

	b.WriteString("<style>\n")
	b.WriteString(".table { border-collapse: collapse; table-layout: fixed; margin-bottom: 2em; }\n")
	b.WriteString(".table td { padding: 4px 8px;")
	if d.fontFamily != "" {
		fmt.Fprintf(&b, " font-family:'%s';", d.fontFamily)
	}
	if d.fontSize > 0 {
		fmt.Fprintf(&b, " font-size:%.1fpt;", d.fontSize)
	}
	if d.fontColor != "" {
		fmt.Fprintf(&b, " color:#%s;", d.fontColor)
	}
	if d.bgColor != "" {
		fmt.Fprintf(&b, " background-color:#%s;", d.bgColor)
	}
	if d.borderColor != "" {
		fmt.Fprintf(&b, " border:1px solid #%s;", d.borderColor)
	} else {
		b.WriteString(" border:1px solid #333;")
	}
	if !d.wrap {
		b.WriteString(" white-space:nowrap; overflow:hidden;")
	}
	b.WriteString(hAlignCSS(d.hAlign))
	b.WriteString(vAlignCSS(d.vAlign))
	b.WriteString(" }\n")
	b.WriteString(".table th { background-color:#EEE; border:1px solid #999; font-weight:normal; color:#555; }\n")
	fmt.Fprintf(&b, ".table td.%s { outline:3px solid #E8A33D; outline-offset:-2px; background-color:#FFF4CC; }\n", TargetClass)
	b.WriteString(".sheet { margin-bottom: 2em; }\n")
	for i, st := range styles {
		name := fmt.Sprintf("cellstyle%d", i+1)
		classes[st] = name
		if css := styleToCSSDiff(st, d); css != "" {
			fmt.Fprintf(&b, ".%s { %s }\n", name, css)
		}
	}
	b.WriteString("</style>\n")

	for _, sheet := range sheets {
		renderSheet(&b, sheet, classes)
	}
	return b.String()
}

func renderSheet(b *strings.Builder, sheet RenderSheet, classes map[CellStyle]string) {
	totalPx := float64(headingWidthPx)
	for _, w := range sheet.ColWidths {
		totalPx += w
	}
	fmt.Fprintf(b, "<div class=\"sheet\" data-name=\"%s\" data-target=\"%s\">\n",
		html.EscapeString(sheet.Name), sheet.Target)
	b.WriteString("<div style=\"width:100%;overflow-x:auto;\">\n")
	fmt.Fprintf(b, "<table class=\"table\" style=\"width:%.0fpx;\">\n", totalPx)
	b.WriteString("  <colgroup>\n")
	fmt.Fprintf(b, "    <col style=\"width:%dpx;\">\n", headingWidthPx)
	for i, w := range sheet.ColWidths {
		if sheet.ColHidden[i] {
			b.WriteString("    <col style=\"display:none;\">\n")
			continue
		}
		fmt.Fprintf(b, "    <col style=\"width:%.0fpx;\">\n", w)
	}
	b.WriteString("  </colgroup>\n")

	b.WriteString("  <tr>\n    <th></th>\n")
	for i := range sheet.ColWidths {
		fmt.Fprintf(b, "    <th>%s</th>\n", address.Column(sheet.Origin.Col+i))
	}
	b.WriteString("  </tr>\n")

	// Columns still covered by a rowspan from an earlier row.
	pending := make([]int, len(sheet.ColWidths))
	for _, row := range sheet.Rows {
		style := fmt.Sprintf("height:%.0fpx;", row.HeightPx)
		if row.Hidden {
			style += "display:none;"
		}
		fmt.Fprintf(b, "  <tr style=\"%s\">\n    <th>%d</th>\n", style, row.Number)
		for c := 0; c < len(row.Cells); c++ {
			if pending[c] > 0 {
				pending[c]--
				continue
			}
			cell := row.Cells[c]
			if cell == nil {
				b.WriteString("    <td></td>\n")
				continue
			}
			class := classes[cell.Style]
			if cell.Target {
				class += " " + TargetClass
			}
			spans := ""
			if cell.ColSpan > 1 {
				spans += fmt.Sprintf(" colspan=\"%d\"", cell.ColSpan)
			}
			if cell.RowSpan > 1 {
				spans += fmt.Sprintf(" rowspan=\"%d\"", cell.RowSpan)
				for k := c; k < c+cell.ColSpan && k < len(pending); k++ {
					pending[k] = cell.RowSpan - 1
				}
			}
			text := strings.ReplaceAll(html.EscapeString(cell.Value), "\n", "<br>")
			fmt.Fprintf(b, "    <td data-cell=\"%s\"%s class=\"%s\">%s</td>\n",
				cell.Ref, spans, strings.TrimSpace(class), text)
			if cell.ColSpan > 1 {
				c += cell.ColSpan - 1
			}
		}
		b.WriteString("  </tr>\n")
	}
	b.WriteString("</table>\n</div>\n</div>\n")
}

func hAlignCSS(align string) string {
	switch align {
	case "":
		return ""
	case "center", "centerContinuous", "distributed":
		return "text-align:center;"
	case "right":
		return "text-align:right;"
	case "justify":
		return "text-align:justify;"
	default:
		return "text-align:left;"
	}
}

func vAlignCSS(align string) string {
	switch align {
	case "":
		return ""
	case "top":
		return "vertical-align:top;"
	case "middle":
		return "vertical-align:middle;"
	default:
		return "vertical-align:bottom;"
	}
}

// styleToCSSDiff returns the CSS for the properties of s that differ from d.
func styleToCSSDiff(s CellStyle, d defaults) string {
	var b strings.Builder
	if s.FontFamily != "" && s.FontFamily != d.fontFamily {
		fmt.Fprintf(&b, "font-family:'%s';", s.FontFamily)
	}
	if s.FontSizePt > 0 && s.FontSizePt != d.fontSize {
		fmt.Fprintf(&b, "font-size:%.1fpt;", s.FontSizePt)
	}
	if s.FontColor != "" && s.FontColor != d.fontColor {
		fmt.Fprintf(&b, "color:#%s;", s.FontColor)
	}
	if s.BackgroundColor != "" && s.BackgroundColor != d.bgColor {
		fmt.Fprintf(&b, "background-color:#%s;", s.BackgroundColor)
	}
	if s.BorderColor != "" && s.BorderColor != d.borderColor {
		fmt.Fprintf(&b, "border:1px solid #%s;", s.BorderColor)
	}
	if s.HorizontalAlign != d.hAlign {
		b.WriteString(hAlignCSS(s.HorizontalAlign))
	}
	if s.VerticalAlign != d.vAlign {
		b.WriteString(vAlignCSS(s.VerticalAlign))
	}
	if s.WrapText != d.wrap {
		if s.WrapText {
			b.WriteString("white-space:normal;")
		} else {
			b.WriteString("white-space:nowrap;overflow:hidden;")
		}
	}
	if s.IndentPx > 0 {
		if s.HorizontalAlign == "right" {
			fmt.Fprintf(&b, "padding-right:%.0fpx;", s.IndentPx)
		} else {
			fmt.Fprintf(&b, "padding-left:%.0fpx;", s.IndentPx)
		}
	}
	return b.String()
}
