package graphicsstate

import (
	"testing"

	"github.com/inkstream/pdftext/model"
)

func TestSaveRestoreRoundTrip(t *testing.T) {
	st := NewStack()
	st.Current().Concat(model.Scale(2, 2))
	st.Current().Text.FontName = "F1"
	st.Current().Text.FontSize = 10
	before := *st.Current()

	st.Save()
	st.Current().Concat(model.Translate(50, 50))
	st.Current().Text.FontSize = 24
	st.Current().Text.CharSpace = 1.5

	if err := st.Restore(); err != nil {
		t.Fatal(err)
	}
	if *st.Current() != before {
		t.Errorf("state after q...Q differs:\n got %+v\nwant %+v", *st.Current(), before)
	}
}

func TestRestoreUnderflow(t *testing.T) {
	st := NewStack()
	if err := st.Restore(); err == nil {
		t.Error("expected underflow error")
	}
}

func TestNestedSaves(t *testing.T) {
	st := NewStack()
	st.Current().Text.FontSize = 1
	st.Save()
	st.Current().Text.FontSize = 2
	st.Save()
	st.Current().Text.FontSize = 3

	st.Restore()
	if st.Current().Text.FontSize != 2 {
		t.Errorf("after first Q: size = %v", st.Current().Text.FontSize)
	}
	st.Restore()
	if st.Current().Text.FontSize != 1 {
		t.Errorf("after second Q: size = %v", st.Current().Text.FontSize)
	}
	if st.Depth() != 0 {
		t.Errorf("depth = %d", st.Depth())
	}
}

func TestTdSetsBothMatrices(t *testing.T) {
	s := NewState()
	s.BeginText()
	s.NextLine(10, -12)
	if s.Text.Matrix != s.Text.LineMatrix {
		t.Error("Td must set text matrix to line matrix")
	}
	p := s.Text.Matrix.Apply(model.Point{})
	if p.X != 10 || p.Y != -12 {
		t.Errorf("origin = %+v", p)
	}

	// A second Td compounds relative to the line matrix.
	s.NextLine(0, -12)
	p = s.Text.Matrix.Apply(model.Point{})
	if p.X != 10 || p.Y != -24 {
		t.Errorf("after second Td: %+v", p)
	}
}

func TestAdvanceDoesNotTouchLineMatrix(t *testing.T) {
	s := NewState()
	s.BeginText()
	s.NextLine(5, 0)
	s.Advance(100, 0)
	tm := s.Text.Matrix.Apply(model.Point{})
	lm := s.Text.LineMatrix.Apply(model.Point{})
	if tm.X != 105 {
		t.Errorf("text matrix x = %v", tm.X)
	}
	if lm.X != 5 {
		t.Errorf("line matrix x = %v", lm.X)
	}
}

func TestRenderMatrixAppliesRise(t *testing.T) {
	s := NewState()
	s.BeginText()
	s.Text.Rise = 3
	p := s.RenderMatrix().Apply(model.Point{})
	if p.Y != 3 {
		t.Errorf("rise not applied: %+v", p)
	}
}
