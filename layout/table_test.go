package layout

import (
	"testing"

	"github.com/inkstream/pdftext/model"
	"github.com/inkstream/pdftext/text"
)

// cellSpan builds a span with an explicit right edge so cell gaps are
// exact.
func cellSpan(t string, x0, x1, y, size float64) text.Span {
	return text.Span{
		Text:     t,
		FontSize: size,
		BBox:     model.Rect{X0: x0, Y0: y, X1: x1, Y1: y + size},
	}
}

// tableLines lays out a classic aligned grid:
//
//	Name   Age   City
//	Alice  30    Oslo
//	Bob    25    Lima
func tableLines() []Line {
	rows := [][3]string{
		{"Name", "Age", "City"},
		{"Alice", "30", "Oslo"},
		{"Bob", "25", "Lima"},
	}
	var spans []text.Span
	for i, row := range rows {
		y := 700 - float64(i)*14
		spans = append(spans,
			cellSpan(row[0], 72, 110, y, 10),
			cellSpan(row[1], 200, 225, y, 10),
			cellSpan(row[2], 300, 340, y, 10),
		)
	}
	return BuildLines(spans, Options{})
}

func TestDetectTablesAlignedGrid(t *testing.T) {
	lines := tableLines()
	tables := DetectTables(lines, Options{})
	if len(tables) != 1 {
		t.Fatalf("tables = %+v", tables)
	}
	tbl := tables[0]
	if tbl.Start != 0 || tbl.End != 3 {
		t.Errorf("range = [%d, %d)", tbl.Start, tbl.End)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %+v", tbl.Rows)
	}
	want := [][]string{
		{"Name", "Age", "City"},
		{"Alice", "30", "Oslo"},
		{"Bob", "25", "Lima"},
	}
	for r := range want {
		for c := range want[r] {
			if tbl.Rows[r][c] != want[r][c] {
				t.Errorf("cell (%d,%d) = %q, want %q", r, c, tbl.Rows[r][c], want[r][c])
			}
		}
	}
}

func TestDetectTablesIgnoresProse(t *testing.T) {
	var spans []text.Span
	for i := 0; i < 5; i++ {
		y := 700 - float64(i)*14
		spans = append(spans, cellSpan("an ordinary full line of body text", 72, 480, y, 10))
	}
	lines := BuildLines(spans, Options{})
	if tables := DetectTables(lines, Options{}); len(tables) != 0 {
		t.Errorf("prose detected as table: %+v", tables)
	}
}

func TestDetectTablesRequiresAlignment(t *testing.T) {
	// Two-cell lines whose second cell drifts far between rows: ragged
	// text, not a table.
	spans := []text.Span{
		cellSpan("left", 72, 100, 700, 10),
		cellSpan("right", 200, 240, 700, 10),
		cellSpan("left", 72, 100, 686, 10),
		cellSpan("right", 320, 360, 686, 10),
	}
	lines := BuildLines(spans, Options{})
	if tables := DetectTables(lines, Options{}); len(tables) != 0 {
		t.Errorf("misaligned rows detected as table: %+v", tables)
	}
}

func TestDetectTablesStopsAtProse(t *testing.T) {
	lines := tableLines()
	prose := cellSpan("A closing paragraph after the table.", 72, 420, 640, 10)
	lines = append(lines, BuildLines([]text.Span{prose}, Options{})...)

	tables := DetectTables(lines, Options{})
	if len(tables) != 1 || tables[0].End != 3 {
		t.Fatalf("tables = %+v", tables)
	}
}

func TestLineCellsWordsStayTogether(t *testing.T) {
	// A 4pt gap at 10pt is a word space, not a cell boundary; a 90pt gap
	// is a cell boundary.
	spans := []text.Span{
		cellSpan("first", 72, 100, 700, 10),
		cellSpan("words", 104, 132, 700, 10),
		cellSpan("second", 222, 260, 700, 10),
	}
	lines := BuildLines(spans, Options{})
	cells := lineCells(lines[0], Options{})
	if len(cells) != 2 {
		t.Fatalf("cells = %+v", cells)
	}
	if cells[0].Text != "first words" {
		t.Errorf("cell 0 = %q", cells[0].Text)
	}
	if cells[1].Text != "second" {
		t.Errorf("cell 1 = %q", cells[1].Text)
	}
}

func TestTableColumnStarts(t *testing.T) {
	lines := tableLines()
	tables := DetectTables(lines, Options{})
	if len(tables) != 1 {
		t.Fatal("expected one table")
	}
	starts := tables[0].ColumnStarts(lines, Options{})
	if len(starts) != 3 {
		t.Fatalf("starts = %v", starts)
	}
	wants := []float64{72, 200, 300}
	for i, want := range wants {
		if abs(starts[i]-want) > alignTolerance {
			t.Errorf("column %d start = %v, want about %v", i, starts[i], want)
		}
	}
}
