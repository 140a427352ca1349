package kernel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

type pointEdge []r3.Vec

func (e pointEdge) Vertices() []r3.Vec { return e }
func (e pointEdge) Points() []r3.Vec   { return e }

type stubShape struct{ angle float64 }

func (stubShape) BoundingBox() r3.Box { return r3.Box{} }

type stubTransformer struct{}

func (stubTransformer) Translate(s Shape, v r3.Vec) Shape { return s }
func (stubTransformer) Rotate(s Shape, axis Axis, angle float64) Shape {
	return stubShape{angle: s.(stubShape).angle + angle}
}

func TestRadialDistance(t *testing.T) {
	var tests = []struct {
		axis Axis
		p    r3.Vec
		want float64
	}{
		{XAxis, r3.Vec{X: 5, Y: 3, Z: 4}, 5},
		{Axis{Dir: r3.Vec{Z: 2}}, r3.Vec{X: 1, Z: -7}, 1},
		{Axis{Origin: r3.Vec{Y: 1}, Dir: r3.Vec{X: 1}}, r3.Vec{Y: 1}, 0},
	}
	for _, test := range tests {
		if got := test.axis.RadialDistance(test.p); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%v from %+v: got %g, want %g", test.p, test.axis, got, test.want)
		}
	}
}

func TestEdgesAtRadius(t *testing.T) {
	on := pointEdge{{Y: 1}, {X: 1, Z: 1 + 5e-7}}
	off := pointEdge{{Y: 1}, {X: 1, Z: 1.1}}
	closed := pointEdge{{X: 2, Y: -1}}
	empty := pointEdge{}
	got := EdgesAtRadius([]Edge{off, on, empty, closed}, XAxis, 1, 1e-6)
	if len(got) != 2 {
		t.Fatalf("got %d edges, want 2", len(got))
	}
	if got[0].(pointEdge)[1] != on[1] || len(got[1].(pointEdge)) != 1 {
		t.Error("edges out of order")
	}
	if EdgeAtRadius(on, XAxis, 1, 1e-7) {
		t.Error("edge outside tolerance accepted")
	}
}

func TestRotationArray(t *testing.T) {
	const n = 5
	shapes := RotationArray(stubTransformer{}, stubShape{}, n, 2*math.Pi, XAxis)
	if len(shapes) != n {
		t.Fatalf("got %d copies", len(shapes))
	}
	for i, s := range shapes {
		want := float64(i) * 2 * math.Pi / n
		if got := s.(stubShape).angle; math.Abs(got-want) > 1e-12 {
			t.Errorf("copy %d at %g, want %g", i, got, want)
		}
	}
	if RotationArray(stubTransformer{}, stubShape{}, 0, 1, XAxis) != nil {
		t.Error("zero copies should be nil")
	}
}

func TestMeshVolume(t *testing.T) {
	// Unit right tetrahedron, outward counter-clockwise faces.
	m := Mesh{
		Vertices: []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
		Indices:  []int{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
	if got := m.Volume(); math.Abs(got-1.0/6) > 1e-15 {
		t.Errorf("volume %g, want 1/6", got)
	}
	if m.Triangles() != 4 {
		t.Errorf("%d triangles", m.Triangles())
	}
}
