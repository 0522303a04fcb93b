// Vector helpers for the layout engine.

package forcegraph

import "math"

// Point is a 2D coordinate or vector in logical pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Sqrt(p.X*p.X + p.Y*p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampAxis keeps v inside [margin, dim-margin]. The margin shrinks to
// dim/2 when the axis is too short to hold it.
func clampAxis(v, dim float64) float64 {
	m := Margin
	if dim < 2*m {
		m = dim / 2
	}
	return clamp(v, m, dim-m)
}
