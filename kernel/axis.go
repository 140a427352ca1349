package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis is an oriented line.
type Axis struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// XAxis is the rotor axis.
var XAxis = Axis{Dir: r3.Vec{X: 1}}

// RadialDistance returns the distance from p to the axis line.
func (a Axis) RadialDistance(p r3.Vec) float64 {
	d := r3.Unit(a.Dir)
	rel := r3.Sub(p, a.Origin)
	along := r3.Scale(r3.Dot(rel, d), d)
	return r3.Norm(r3.Sub(rel, along))
}

// EdgeAtRadius reports whether every vertex of e lies within tol of radius
// from the axis.
func EdgeAtRadius(e Edge, axis Axis, radius, tol float64) bool {
	vs := e.Vertices()
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if math.Abs(axis.RadialDistance(v)-radius) > tol {
			return false
		}
	}
	return true
}

// EdgesAtRadius returns the edges for which EdgeAtRadius holds,
// in their original order.
func EdgesAtRadius(edges []Edge, axis Axis, radius, tol float64) []Edge {
	var out []Edge
	for _, e := range edges {
		if EdgeAtRadius(e, axis, radius, tol) {
			out = append(out, e)
		}
	}
	return out
}

// RotationArray returns n copies of s rotated about axis in steps of
// angle/n. Copy 0 is s itself.
func RotationArray(t Transformer, s Shape, n int, angle float64, axis Axis) []Shape {
	if n <= 0 {
		return nil
	}
	out := make([]Shape, n)
	out[0] = s
	step := angle / float64(n)
	for i := 1; i < n; i++ {
		out[i] = t.Rotate(s, axis, float64(i)*step)
	}
	return out
}
