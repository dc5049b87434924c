package layout

import (
	"sort"
	"strings"
)

// Cell is one table cell: its assembled text and the left edge it starts
// at.
type Cell struct {
	Text string
	X0   float64
}

// Table is a run of consecutive lines whose cells align into columns.
// Start and End index the line slice the table was detected in, half open.
type Table struct {
	Start int
	End   int
	Rows  [][]string
}

// alignTolerance is how far cell left edges may drift between rows and
// still count as the same column.
const alignTolerance = 6.0

const (
	minTableRows = 2
	minTableCols = 2
)

// DetectTables finds column-aligned regions in ordered lines: consecutive
// lines that split into the same number of cells with matching left edges.
// Cell boundaries are x-gaps wide enough to rule out ordinary word spacing.
func DetectTables(lines []Line, opts Options) []Table {
	var tables []Table
	i := 0
	for i < len(lines) {
		first := lineCells(lines[i], opts)
		if len(first) < minTableCols {
			i++
			continue
		}
		rows := [][]Cell{first}
		j := i + 1
		for j < len(lines) {
			next := lineCells(lines[j], opts)
			if !cellsAligned(rows[len(rows)-1], next) {
				break
			}
			rows = append(rows, next)
			j++
		}
		if len(rows) < minTableRows {
			i++
			continue
		}
		table := Table{Start: i, End: j}
		for _, row := range rows {
			texts := make([]string, len(row))
			for c, cell := range row {
				texts[c] = cell.Text
			}
			table.Rows = append(table.Rows, texts)
		}
		tables = append(tables, table)
		i = j
	}
	return tables
}

// lineCells splits a line's spans into cells at gaps too wide for word
// spacing. Within a cell, the usual space-insertion rule applies.
func lineCells(l Line, opts Options) []Cell {
	if len(l.Spans) == 0 {
		return nil
	}
	var cells []Cell
	var sb strings.Builder
	start := l.Spans[0].X0()

	flush := func() {
		text := strings.TrimSpace(sb.String())
		if text != "" {
			cells = append(cells, Cell{Text: text, X0: start})
		}
		sb.Reset()
	}

	for i, s := range l.Spans {
		if i > 0 {
			prev := l.Spans[i-1]
			gap := s.X0() - prev.X1()
			if gap > cellGap(l) {
				flush()
				start = s.X0()
			} else if gap > opts.spaceThreshold()*prev.FontSize {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(s.Text)
	}
	flush()
	return cells
}

// cellGap is the minimum x-gap that separates cells rather than words.
func cellGap(l Line) float64 {
	g := 1.5 * l.FontSize
	if g < 12 {
		g = 12
	}
	return g
}

// cellsAligned reports whether two rows have the same column structure.
func cellsAligned(a, b []Cell) bool {
	if len(a) != len(b) || len(b) < minTableCols {
		return false
	}
	for i := range a {
		if abs(a[i].X0-b[i].X0) > alignTolerance {
			return false
		}
	}
	return true
}

// ColumnStarts returns the clustered left edges of the table's columns,
// averaging edges that fall within the alignment tolerance.
func (t Table) ColumnStarts(lines []Line, opts Options) []float64 {
	var xs []float64
	for i := t.Start; i < t.End && i < len(lines); i++ {
		for _, c := range lineCells(lines[i], opts) {
			xs = append(xs, c.X0)
		}
	}
	sort.Float64s(xs)
	return clusterValues(xs, alignTolerance)
}

// clusterValues merges sorted values closer than tolerance, keeping the
// running average as the cluster center.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	clustered := []float64{values[0]}
	for _, v := range values[1:] {
		last := clustered[len(clustered)-1]
		if v-last > tolerance {
			clustered = append(clustered, v)
		} else {
			clustered[len(clustered)-1] = (last + v) / 2
		}
	}
	return clustered
}
