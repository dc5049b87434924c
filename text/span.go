package text

import "github.com/inkstream/pdftext/model"

// Span is a run of characters that shared one font and was emitted between
// text-state changes. Coordinates are device space with the origin at the
// baseline left; FontSize is in device units.
type Span struct {
	Text     string
	FontName string
	FontSize float64
	Bold     bool
	Italic   bool
	Mono     bool

	BBox model.Rect

	// MCID is the innermost marked-content identifier covering the span,
	// or -1 outside any marked content.
	MCID int
}

// X0 returns the left edge of the span.
func (s Span) X0() float64 { return s.BBox.X0 }

// Y0 returns the baseline (bottom) edge of the span.
func (s Span) Y0() float64 { return s.BBox.Y0 }

// X1 returns the right edge of the span.
func (s Span) X1() float64 { return s.BBox.X1 }

// Y1 returns the top edge of the span.
func (s Span) Y1() float64 { return s.BBox.Y1 }
