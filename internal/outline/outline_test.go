package outline

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/axial/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSmoothSquare(t *testing.T) {
	const r = 0.25
	b := New()
	b.Add(0, 0)
	b.Add(1, 0).Smooth(r, 4)
	b.Add(0, 1).Rel()
	b.Add(0, 1)
	b.Close()
	pts, err := b.Vertices()
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 3+5 {
		t.Fatalf("got %d vertices", len(pts))
	}
	if !d2.EqualWithin(pts[1], r2.Vec{X: 1 - r}, 1e-12) {
		t.Errorf("arc start %v", pts[1])
	}
	if !d2.EqualWithin(pts[5], r2.Vec{X: 1, Y: r}, 1e-12) {
		t.Errorf("arc end %v", pts[5])
	}
	c := r2.Vec{X: 1 - r, Y: r}
	for _, p := range pts[1:6] {
		if d := r2.Norm(r2.Sub(p, c)); math.Abs(d-r) > 1e-12 {
			t.Errorf("arc point %v at distance %g from center", p, d)
		}
	}
	area := d2.Set(pts).Area()
	if area <= 1-r*r || area >= 1-r*r+math.Pi*r*r/4 {
		t.Errorf("area %g", area)
	}
}

func TestVerticesErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		build func(b *Builder)
		want  error
	}{
		{"single", func(b *Builder) { b.Add(0, 0) }, nil},
		{"relative first", func(b *Builder) { b.Add(0, 0).Rel(); b.Add(1, 0) }, nil},
		{"open endpoint", func(b *Builder) { b.Add(0, 0).Smooth(0.1, 2); b.Add(1, 0); b.Add(1, 1) }, nil},
		{"too large", func(b *Builder) {
			b.Add(0, 0)
			b.Add(1, 0).Smooth(2, 4)
			b.Add(1, 1)
			b.Close()
		}, ErrRadiusTooLarge},
	} {
		b := New()
		tc.build(b)
		_, err := b.Vertices()
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestStraightVertexKept(t *testing.T) {
	b := New()
	b.Add(0, 0)
	b.Add(1, 0).Smooth(0.1, 3)
	b.Add(2, 0)
	b.Add(1, 1)
	b.Close()
	pts, err := b.Vertices()
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 4 || pts[1] != (r2.Vec{X: 1}) {
		t.Errorf("got %v", pts)
	}
}
