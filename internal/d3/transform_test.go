package d3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRotation(t *testing.T) {
	const tol = 1e-12
	for _, tc := range []struct {
		origin, axis r3.Vec
		angle        float64
		in, want     r3.Vec
	}{
		{axis: r3.Vec{X: 1}, angle: math.Pi / 2, in: r3.Vec{Y: 1}, want: r3.Vec{Z: 1}},
		{axis: r3.Vec{Z: 2}, angle: math.Pi, in: r3.Vec{X: 1, Z: 3}, want: r3.Vec{X: -1, Z: 3}},
		{origin: r3.Vec{X: 1}, axis: r3.Vec{Z: 1}, angle: math.Pi, in: r3.Vec{}, want: r3.Vec{X: 2}},
		{origin: r3.Vec{Y: 1}, axis: r3.Vec{X: 1}, angle: 0, in: r3.Vec{X: 5, Y: 2}, want: r3.Vec{X: 5, Y: 2}},
	} {
		got := Rotation(tc.origin, tc.axis, tc.angle).Transform(tc.in)
		if !EqualWithin(got, tc.want, tol) {
			t.Errorf("rotate %v about %v@%v by %g: got %v, want %v", tc.in, tc.axis, tc.origin, tc.angle, got, tc.want)
		}
	}
}

func TestDirectionIgnoresTranslation(t *testing.T) {
	tr := Translation(r3.Vec{X: 3, Y: -1}).Mul(Rotation(r3.Vec{}, r3.Vec{Z: 1}, math.Pi/2))
	if got := tr.Direction(r3.Vec{X: 1}); !EqualWithin(got, r3.Vec{Y: 1}, 1e-12) {
		t.Errorf("direction %v", got)
	}
	if got := tr.Transform(r3.Vec{X: 1}); !EqualWithin(got, r3.Vec{X: 3}, 1e-12) {
		t.Errorf("point %v", got)
	}
	if (Transform{}).Mul(tr) != tr || tr.Mul(Transform{}) != tr {
		t.Error("identity is not neutral")
	}
}

func TestBoxInclude(t *testing.T) {
	b := Box{Min: r3.Vec{X: 1, Y: 1, Z: 1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	b = b.Include(r3.Vec{X: -1, Y: 2, Z: 1})
	if b.Min != (r3.Vec{X: -1, Y: 1, Z: 1}) || b.Max != (r3.Vec{X: 1, Y: 2, Z: 1}) {
		t.Errorf("got %+v", b)
	}
}
