package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inkstream/pdftext/layout"
)

// Options tune the Markdown classifier. Zero values select the defaults.
type Options struct {
	// H1Ratio, H2Ratio, H3Ratio are the font-size ratios over the body
	// size at which a paragraph becomes a heading. Defaults 1.8, 1.5, 1.3.
	H1Ratio float64
	H2Ratio float64
	H3Ratio float64
	// IndentStep is the indent quantum in points for list nesting.
	// Default 36 (half an inch).
	IndentStep float64
}

func (o Options) ratios() (float64, float64, float64) {
	h1, h2, h3 := o.H1Ratio, o.H2Ratio, o.H3Ratio
	if h1 <= 0 {
		h1 = 1.8
	}
	if h2 <= 0 {
		h2 = 1.5
	}
	if h3 <= 0 {
		h3 = 1.3
	}
	return h1, h2, h3
}

func (o Options) indentStep() float64 {
	if o.IndentStep > 0 {
		return o.IndentStep
	}
	return 36
}

// bulletRunes are the leading tokens that mark an unordered list item.
var bulletRunes = map[rune]bool{
	'•': true, '●': true, '○': true, '■': true, '□': true,
	'▪': true, '▫': true, '–': true, '—': true, '-': true, '*': true,
}

// numberedPattern matches ordered-list lead-ins: optional open paren, a
// number or single letter, then . ) or :.
var numberedPattern = regexp.MustCompile(`^\(?([0-9]+|[a-zA-Z])[.\):]\s+`)

// Render classifies an analyzed page into Markdown blocks: headings by
// font-size ratio, bullet and numbered lists by lead-in token, indent by
// left margin, code and emphasis by typeface when font metadata is
// available, and column-aligned regions as pipe tables.
func Render(page *layout.Page, opts Options) string {
	// Table detection needs the page regrouped without the column split:
	// aligned table cells otherwise read as column gutters and the rows
	// are torn apart.
	if len(page.Spans) > 0 {
		lines := layout.BuildLines(page.Spans, layout.Options{})
		if tables := layout.DetectTables(lines, layout.Options{}); len(tables) > 0 {
			return renderWithTables(lines, tables, page.BodySize, opts)
		}
	}

	var blocks []string
	for _, col := range page.Columns {
		baseX := columnLeft(col)
		for _, para := range layout.BuildParagraphs(col, page.BodySize, layout.Options{}) {
			if block := renderParagraph(para, page.BodySize, baseX, opts); block != "" {
				blocks = append(blocks, block)
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}

// renderWithTables walks the page's lines top to bottom, emitting detected
// tables as pipe tables and the line runs between them as ordinary blocks.
func renderWithTables(lines []layout.Line, tables []layout.Table, bodySize float64, opts Options) string {
	baseX := columnLeft(lines)
	var blocks []string

	segment := func(from, to int) {
		if from >= to {
			return
		}
		for _, para := range layout.BuildParagraphs(lines[from:to], bodySize, layout.Options{}) {
			if block := renderParagraph(para, bodySize, baseX, opts); block != "" {
				blocks = append(blocks, block)
			}
		}
	}

	idx := 0
	for _, table := range tables {
		segment(idx, table.Start)
		blocks = append(blocks, renderTable(table))
		idx = table.End
	}
	segment(idx, len(lines))
	return strings.Join(blocks, "\n\n")
}

// renderTable emits a Markdown pipe table: the first row is the header, a
// separator row follows, then the body rows.
func renderTable(t layout.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(escapeCell(cell))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(t.Rows[0])
	sb.WriteString("|")
	for range t.Rows[0] {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// escapeCell protects pipe characters inside cell text.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// columnLeft returns the leftmost line edge of a column; indent levels are
// measured from it rather than from the page edge so margins do not read
// as nesting.
func columnLeft(lines []layout.Line) float64 {
	left := 0.0
	for i, l := range lines {
		if i == 0 || l.X0 < left {
			left = l.X0
		}
	}
	return left
}

func renderParagraph(para layout.Paragraph, bodySize, baseX float64, opts Options) string {
	text := strings.TrimSpace(para.Text())
	if text == "" {
		return ""
	}

	if level := headingLevel(paragraphSize(para), bodySize, opts); level > 0 {
		line := strings.Join(strings.Fields(text), " ")
		return strings.Repeat("#", level) + " " + emphasize(line, para)
	}

	if para.AllMono() {
		return "```\n" + text + "\n```"
	}

	// Lists classify per line so multi-item paragraphs split correctly.
	if isList(para) {
		var items []string
		for _, line := range para.Lines {
			items = append(items, renderListItem(line, baseX, opts))
		}
		return strings.Join(items, "\n")
	}

	return emphasize(strings.Join(strings.Fields(text), " "), para)
}

// headingLevel classifies a font size against the body size.
func headingLevel(size, body float64, opts Options) int {
	if body <= 0 {
		return 0
	}
	h1, h2, h3 := opts.ratios()
	ratio := size / body
	switch {
	case ratio >= h1:
		return 1
	case ratio >= h2:
		return 2
	case ratio >= h3:
		return 3
	default:
		return 0
	}
}

func paragraphSize(para layout.Paragraph) float64 {
	var sum float64
	for _, l := range para.Lines {
		sum += l.FontSize
	}
	if len(para.Lines) == 0 {
		return 0
	}
	return sum / float64(len(para.Lines))
}

// isList reports whether most lines of the paragraph carry a list lead-in.
func isList(para layout.Paragraph) bool {
	if len(para.Lines) == 0 {
		return false
	}
	n := 0
	for _, line := range para.Lines {
		if lineIsBullet(line.Text) || numberedPattern.MatchString(line.Text) {
			n++
		}
	}
	return n*2 > len(para.Lines)
}

func lineIsBullet(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	first := []rune(fields[0])
	return len(first) == 1 && bulletRunes[first[0]]
}

// renderListItem rewrites one line as a Markdown list item with nesting
// from the left-margin indent: floor((x0-baseX)/step), capped at six
// levels.
func renderListItem(line layout.Line, baseX float64, opts Options) string {
	level := int((line.X0 - baseX) / opts.indentStep())
	if level > 6 {
		level = 6
	}
	if level < 0 {
		level = 0
	}
	indent := strings.Repeat("  ", level)

	text := strings.TrimSpace(line.Text)
	if lineIsBullet(text) {
		fields := strings.Fields(text)
		return indent + "- " + strings.Join(fields[1:], " ")
	}
	if m := numberedPattern.FindStringSubmatch(text); m != nil {
		rest := strings.TrimSpace(text[len(m[0]):])
		return fmt.Sprintf("%s%s. %s", indent, m[1], rest)
	}
	return indent + text
}

// emphasize wraps the text in Markdown emphasis when every span of the
// paragraph shares a bold or italic face. Without font metadata the flags
// are never set and the text passes through.
func emphasize(text string, para layout.Paragraph) string {
	if text == "" {
		return text
	}
	bold, italic := para.AllBold(), para.AllItalic()
	switch {
	case bold && italic:
		return "***" + text + "***"
	case bold:
		return "**" + text + "**"
	case italic:
		return "*" + text + "*"
	default:
		return text
	}
}

// PageSeparator joins per-page Markdown renderings of a document.
const PageSeparator = "\n\n---\n\n"

// FromStructType maps a structure-tree element type to a Markdown block
// prefix; empty means plain paragraph text.
func FromStructType(t string) string {
	switch t {
	case "H", "H1", "Title":
		return "# "
	case "H2":
		return "## "
	case "H3":
		return "### "
	case "H4":
		return "#### "
	case "H5":
		return "##### "
	case "H6":
		return "###### "
	case "LI", "LBody":
		return "- "
	case "Code":
		return "    "
	default:
		return ""
	}
}
