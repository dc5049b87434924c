package layout

import (
	"sort"

	"github.com/inkstream/pdftext/text"
)

// minGutterWidth is the narrowest vertical band of whitespace treated as a
// column gutter.
const minGutterWidth = 12.0

// minColumnShare is the fraction of all spans that must sit entirely on
// each side of a gutter for the split to count.
const minColumnShare = 0.3

// SplitColumns partitions spans into columns by locating vertical gutters:
// x-ranges crossed by no span over a significant share of the page's
// vertical extent. Columns come back left to right; spans that straddle a
// gutter stay with the column their left edge is in.
func SplitColumns(spans []text.Span, pageWidth float64) [][]text.Span {
	if len(spans) < 4 {
		return [][]text.Span{spans}
	}

	gutters := findGutters(spans, pageWidth)
	if len(gutters) == 0 {
		return [][]text.Span{spans}
	}

	// Partition by left edge against the sorted gutter centers.
	cuts := make([]float64, len(gutters))
	for i, g := range gutters {
		cuts[i] = (g.lo + g.hi) / 2
	}
	sort.Float64s(cuts)

	columns := make([][]text.Span, len(cuts)+1)
	for _, s := range spans {
		col := 0
		for col < len(cuts) && s.X0() >= cuts[col] {
			col++
		}
		columns[col] = append(columns[col], s)
	}

	// Drop empty columns produced by degenerate cuts.
	out := columns[:0]
	for _, c := range columns {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

type gutter struct {
	lo, hi float64
}

// findGutters scans candidate x positions inside the content extent and
// keeps maximal bands no span crosses, provided both sides hold a
// meaningful share of the content.
func findGutters(spans []text.Span, pageWidth float64) []gutter {
	minX, maxX := spans[0].X0(), spans[0].X1()
	for _, s := range spans {
		if s.X0() < minX {
			minX = s.X0()
		}
		if s.X1() > maxX {
			maxX = s.X1()
		}
	}
	if maxX-minX < 2*minGutterWidth {
		return nil
	}

	const step = 2.0
	var gutters []gutter
	x := minX + minGutterWidth
	limit := maxX - minGutterWidth
	for x < limit {
		if crossesAny(spans, x) {
			x += step
			continue
		}
		// Extend the empty band.
		lo := x
		for x < limit && !crossesAny(spans, x) {
			x += step
		}
		hi := x
		if hi-lo < minGutterWidth {
			continue
		}
		center := (lo + hi) / 2
		left, right := 0, 0
		for _, s := range spans {
			if s.X1() <= center {
				left++
			}
			if s.X0() >= center {
				right++
			}
		}
		total := float64(len(spans))
		if float64(left) >= minColumnShare*total && float64(right) >= minColumnShare*total {
			gutters = append(gutters, gutter{lo: lo, hi: hi})
		}
	}
	return gutters
}

func crossesAny(spans []text.Span, x float64) bool {
	for _, s := range spans {
		if s.X0() < x && s.X1() > x {
			return true
		}
	}
	return false
}
