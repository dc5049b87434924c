package layout

import (
	"sort"
	"strings"

	"github.com/inkstream/pdftext/text"
)

// Line is a horizontal run of spans sharing a baseline, sorted left to
// right, with inter-word spaces inserted.
type Line struct {
	Spans    []text.Span
	Baseline float64
	X0, X1   float64
	Top      float64
	FontSize float64 // character-weighted average
	Text     string
}

// Options tune the layout heuristics. Zero values select the defaults.
type Options struct {
	// SpaceThreshold is the fraction of the preceding glyph's em that an
	// x-gap must exceed for a space to be inserted. Default 0.15.
	SpaceThreshold float64
	// LineTolerance overrides the baseline-bucketing tolerance in points.
	// Zero derives it from the median font size.
	LineTolerance float64
	// ParagraphGap is the multiple of the body font size beyond which a
	// vertical gap ends a paragraph. Default 1.2.
	ParagraphGap float64
	// NoColumns disables gutter detection, treating the page as a single
	// column.
	NoColumns bool
}

func (o Options) spaceThreshold() float64 {
	if o.SpaceThreshold > 0 {
		return o.SpaceThreshold
	}
	return 0.15
}

func (o Options) paragraphGap() float64 {
	if o.ParagraphGap > 0 {
		return o.ParagraphGap
	}
	return 1.2
}

// BuildLines groups spans into lines by baseline proximity. The bucketing
// tolerance is proportional to the median font size, about 3pt at body
// sizes.
func BuildLines(spans []text.Span, opts Options) []Line {
	if len(spans) == 0 {
		return nil
	}

	tol := opts.LineTolerance
	if tol <= 0 {
		tol = medianFontSize(spans) * 0.25
		if tol < 1 {
			tol = 1
		}
	}

	// Sort top to bottom, then left to right, so bucketing is stable.
	ordered := append([]text.Span(nil), spans...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Y0() != ordered[j].Y0() {
			return ordered[i].Y0() > ordered[j].Y0()
		}
		return ordered[i].X0() < ordered[j].X0()
	})

	var lines []Line
	for _, s := range ordered {
		matched := -1
		for i := range lines {
			if abs(lines[i].Baseline-s.Y0()) <= tol {
				matched = i
				break
			}
		}
		if matched < 0 {
			lines = append(lines, Line{Baseline: s.Y0()})
			matched = len(lines) - 1
		}
		lines[matched].Spans = append(lines[matched].Spans, s)
	}

	for i := range lines {
		finishLine(&lines[i], opts)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Baseline > lines[j].Baseline
	})
	return lines
}

// finishLine sorts a line's spans by x and assembles its text with space
// insertion at gaps exceeding the threshold.
func finishLine(l *Line, opts Options) {
	sort.SliceStable(l.Spans, func(i, j int) bool {
		return l.Spans[i].X0() < l.Spans[j].X0()
	})

	var sb strings.Builder
	var chars float64
	var sizeSum float64
	for i, s := range l.Spans {
		if i > 0 {
			prev := l.Spans[i-1]
			gap := s.X0() - prev.X1()
			if gap > opts.spaceThreshold()*prev.FontSize && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(s.Text)

		n := float64(len([]rune(s.Text)))
		chars += n
		sizeSum += s.FontSize * n

		if i == 0 || s.X0() < l.X0 {
			l.X0 = s.X0()
		}
		if s.X1() > l.X1 {
			l.X1 = s.X1()
		}
		if s.Y1() > l.Top {
			l.Top = s.Y1()
		}
	}
	l.Text = sb.String()
	if chars > 0 {
		l.FontSize = sizeSum / chars
	}
}

// medianFontSize returns the median span font size.
func medianFontSize(spans []text.Span) float64 {
	sizes := make([]float64, 0, len(spans))
	for _, s := range spans {
		if s.FontSize > 0 {
			sizes = append(sizes, s.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 12
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// BodyFontSize estimates the dominant text size: the size with the largest
// character-weighted share, binned to 0.1pt.
func BodyFontSize(spans []text.Span) float64 {
	weights := make(map[int64]float64)
	for _, s := range spans {
		bin := int64(s.FontSize*10 + 0.5)
		weights[bin] += float64(len([]rune(s.Text)))
	}
	var bestBin int64
	var bestWeight float64
	for bin, w := range weights {
		if w > bestWeight || (w == bestWeight && bin > bestBin) {
			bestBin, bestWeight = bin, w
		}
	}
	if bestBin == 0 {
		return 12
	}
	return float64(bestBin) / 10
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
