package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// EqualWithin reports whether a and b are within tol on every component.
func EqualWithin(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Rotate rotates v counter-clockwise by angle radians about the origin.
func Rotate(v r2.Vec, angle float64) r2.Vec {
	s, c := math.Sincos(angle)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Set is a polygon or point cloud.
type Set []r2.Vec

// Area returns the signed area of the closed polygon a. Counter-clockwise
// polygons have positive area.
func (a Set) Area() float64 {
	var s float64
	n := len(a)
	for i := range a {
		p, q := a[i], a[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}
