package layout

import (
	"strings"

	"github.com/inkstream/pdftext/text"
)

// Paragraph is a run of consecutive lines with no paragraph-sized vertical
// gap between them.
type Paragraph struct {
	Lines []Line
}

// Text joins the paragraph's lines with newlines.
func (p Paragraph) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// AllBold reports whether every span in the paragraph uses a bold face.
func (p Paragraph) AllBold() bool { return p.allStyle(func(s text.Span) bool { return s.Bold }) }

// AllItalic reports whether every span uses an italic face.
func (p Paragraph) AllItalic() bool { return p.allStyle(func(s text.Span) bool { return s.Italic }) }

// AllMono reports whether every span uses a monospace face.
func (p Paragraph) AllMono() bool { return p.allStyle(func(s text.Span) bool { return s.Mono }) }

func (p Paragraph) allStyle(pred func(text.Span) bool) bool {
	any := false
	for _, l := range p.Lines {
		for _, s := range l.Spans {
			any = true
			if !pred(s) {
				return false
			}
		}
	}
	return any
}

// BuildParagraphs groups ordered lines into paragraphs: a vertical gap
// exceeding the paragraph multiple of the body font size ends a paragraph.
func BuildParagraphs(lines []Line, bodySize float64, opts Options) []Paragraph {
	if len(lines) == 0 {
		return nil
	}
	if bodySize <= 0 {
		bodySize = 12
	}
	threshold := opts.paragraphGap() * bodySize

	var paras []Paragraph
	current := Paragraph{Lines: []Line{lines[0]}}
	for _, line := range lines[1:] {
		prev := current.Lines[len(current.Lines)-1]
		gap := prev.Baseline - line.Top
		if gap > threshold {
			paras = append(paras, current)
			current = Paragraph{}
		}
		current.Lines = append(current.Lines, line)
	}
	paras = append(paras, current)
	return paras
}

// Page is the fully analyzed layout of one page: columns in left-to-right
// order, each holding its lines top to bottom, plus the estimated body
// font size. Spans keeps the full span set so passes that must see the
// page whole (table detection) can regroup it without the column split.
type Page struct {
	Columns  [][]Line
	BodySize float64
	Spans    []text.Span
}

// Analyze runs the full layout pass: line grouping, column detection and
// reading order.
func Analyze(spans []text.Span, pageWidth float64, opts Options) *Page {
	page := &Page{BodySize: BodyFontSize(spans), Spans: spans}
	if len(spans) == 0 {
		return page
	}

	var groups [][]text.Span
	if opts.NoColumns {
		groups = [][]text.Span{spans}
	} else {
		groups = SplitColumns(spans, pageWidth)
	}
	for _, group := range groups {
		page.Columns = append(page.Columns, BuildLines(group, opts))
	}
	return page
}

// Lines returns every line in reading order: columns left to right, lines
// top to bottom within each.
func (p *Page) Lines() []Line {
	var out []Line
	for _, col := range p.Columns {
		out = append(out, col...)
	}
	return out
}

// Text renders the page as plain text in reading order, with blank lines at
// paragraph breaks.
func (p *Page) Text(opts Options) string {
	var parts []string
	for _, col := range p.Columns {
		for _, para := range BuildParagraphs(col, p.BodySize, opts) {
			parts = append(parts, para.Text())
		}
	}
	return strings.Join(parts, "\n\n")
}

// StreamText renders spans in their given order without layout analysis:
// spans on one baseline are joined with a space when the gap between them
// exceeds the space threshold, a newline separates baselines. This
// is the content-stream-order extraction mode.
func StreamText(spans []text.Span, opts Options) string {
	var sb strings.Builder
	for i, s := range spans {
		if i > 0 {
			prev := spans[i-1]
			if abs(s.Y0()-prev.Y0()) > 0.5*maxf(s.FontSize, prev.FontSize) {
				sb.WriteString("\n")
			} else if gap := s.X0() - prev.X1(); gap > opts.spaceThreshold()*prev.FontSize {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
