package model

import "math"

// Point is a position in user or device space.
type Point struct {
	X, Y float64
}

// Matrix is a PDF affine transformation [a b c d e f]; the implicit third
// column is (0 0 1). Points transform as row vectors: p' = p . M.
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Apply transforms a point by the matrix.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Mul returns the matrix that applies m first and then n. This is the
// composition used by the cm operator, which prepends its operand to the CTM.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// ScaleFactor reports the effective scalar magnification of the matrix,
// used to turn a nominal font size into device units.
func (m Matrix) ScaleFactor() float64 {
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	if sy > sx {
		return sy
	}
	return sx
}

// IsIdentity reports whether m is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Matrix{1, 0, 0, 1, 0, 0}
}

// Rect is an axis-aligned rectangle with PDF orientation: Y grows upward,
// so Y0 is the bottom edge and Y1 the top.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// RectFromPoints returns the bounding rectangle of two points.
func RectFromPoints(p, q Point) Rect {
	return Rect{
		X0: math.Min(p.X, q.X),
		Y0: math.Min(p.Y, q.Y),
		X1: math.Max(p.X, q.X),
		Y1: math.Max(p.Y, q.Y),
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Union returns the smallest rectangle covering both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, s.X0),
		Y0: math.Min(r.Y0, s.Y0),
		X1: math.Max(r.X1, s.X1),
		Y1: math.Max(r.Y1, s.Y1),
	}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}
