package model

import (
	"math"
	"testing"
)

func TestMatrixMulOrder(t *testing.T) {
	// Scale by 2, then translate by (10, 0). A point at (1, 1) should land
	// at (12, 2), not (22, 2).
	m := Scale(2, 2).Mul(Translate(10, 0))
	p := m.Apply(Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 2 {
		t.Errorf("got (%v, %v), want (12, 2)", p.X, p.Y)
	}
}

func TestMatrixIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity() is not identity")
	}
	if Translate(1, 0).IsIdentity() {
		t.Error("translation reported as identity")
	}
	m := Matrix{2, 0, 0, 3, 5, 7}
	got := m.Mul(Identity())
	if got != m {
		t.Errorf("m * I = %v, want %v", got, m)
	}
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		m    Matrix
		want float64
	}{
		{Identity(), 1},
		{Scale(2, 2), 2},
		{Scale(1, 3), 3},
		{Matrix{0, 2, -2, 0, 0, 0}, 2}, // 90-degree rotation at 2x
	}
	for _, tt := range tests {
		if got := tt.m.ScaleFactor(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScaleFactor(%v) = %v, want %v", tt.m, got, tt.want)
		}
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, -5, 20, 8}
	got := a.Union(b)
	want := Rect{0, -5, 20, 10}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
}

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints(Point{10, 20}, Point{-5, 4})
	want := Rect{-5, 4, 10, 20}
	if r != want {
		t.Errorf("RectFromPoints = %+v, want %+v", r, want)
	}
	if r.Width() != 15 || r.Height() != 16 {
		t.Errorf("Width/Height = %v/%v, want 15/16", r.Width(), r.Height())
	}
}
