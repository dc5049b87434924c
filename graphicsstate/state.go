package graphicsstate

import (
	"fmt"

	"github.com/inkstream/pdftext/model"
)

// TextState holds the text-specific parameters set by the Tc/Tw/Tz/TL/Tf/
// Tr/Ts operators plus the text and line matrices managed inside BT/ET.
type TextState struct {
	FontName   string
	FontSize   float64
	CharSpace  float64 // Tc
	WordSpace  float64 // Tw
	Horizontal float64 // Tz, percent
	Leading    float64 // TL
	RenderMode int     // Tr
	Rise       float64 // Ts

	Matrix     model.Matrix // Tm
	LineMatrix model.Matrix // Tlm
}

// State is the graphics state as the text interpreter needs it: the CTM and
// the text state. States are value types; Stack snapshots copy them whole,
// which is cheap because matrices are fixed-size arrays.
type State struct {
	CTM  model.Matrix
	Text TextState
}

// NewState returns the default state: identity CTM, 100% horizontal
// scaling.
func NewState() State {
	return State{
		CTM: model.Identity(),
		Text: TextState{
			Horizontal: 100,
			Matrix:     model.Identity(),
			LineMatrix: model.Identity(),
		},
	}
}

// Concat prepends m to the CTM (the cm operator).
func (s *State) Concat(m model.Matrix) {
	s.CTM = m.Mul(s.CTM)
}

// BeginText resets both text matrices to identity (the BT operator).
func (s *State) BeginText() {
	s.Text.Matrix = model.Identity()
	s.Text.LineMatrix = model.Identity()
}

// SetTextMatrix replaces both matrices (the Tm operator).
func (s *State) SetTextMatrix(m model.Matrix) {
	s.Text.Matrix = m
	s.Text.LineMatrix = m
}

// NextLine translates the line matrix and resets the text matrix to it
// (the Td operator).
func (s *State) NextLine(tx, ty float64) {
	s.Text.LineMatrix = model.Translate(tx, ty).Mul(s.Text.LineMatrix)
	s.Text.Matrix = s.Text.LineMatrix
}

// NextLineLeading moves down by the current leading (the T* operator).
func (s *State) NextLineLeading() {
	s.NextLine(0, -s.Text.Leading)
}

// Advance moves the text matrix along the baseline by tx text-space units
// (and ty for vertical writing).
func (s *State) Advance(tx, ty float64) {
	s.Text.Matrix = model.Translate(tx, ty).Mul(s.Text.Matrix)
}

// RenderMatrix returns the matrix from text space to device space at the
// current position, with rise applied.
func (s *State) RenderMatrix() model.Matrix {
	trm := model.Matrix{1, 0, 0, 1, 0, s.Text.Rise}
	return trm.Mul(s.Text.Matrix).Mul(s.CTM)
}

// Stack is the q/Q save stack. The zero value is empty with a default
// current state.
type Stack struct {
	current State
	saved   []State
}

// NewStack returns a stack holding the default state.
func NewStack() *Stack {
	return &Stack{current: NewState()}
}

// Current returns a pointer to the active state for mutation.
func (st *Stack) Current() *State { return &st.current }

// Save pushes a copy of the current state (the q operator).
func (st *Stack) Save() {
	st.saved = append(st.saved, st.current)
}

// Restore pops the last saved state (the Q operator). Popping an empty
// stack is an error; callers in permissive mode ignore it.
func (st *Stack) Restore() error {
	if len(st.saved) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}
	st.current = st.saved[len(st.saved)-1]
	st.saved = st.saved[:len(st.saved)-1]
	return nil
}

// Depth returns the number of saved states.
func (st *Stack) Depth() int { return len(st.saved) }
