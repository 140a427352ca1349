package hub

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel/facet"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestCorners(t *testing.T) {
	p := DefaultParameters()
	pts, fillets, err := p.Corners()
	if err != nil {
		t.Fatal(err)
	}
	hf := 0.4 - 0.6*math.Tan(0.5)
	hb := 0.4 - 1.2*math.Tan(0.2)
	want := []r2.Vec{{}, {Y: hf}, {X: 0.6, Y: 0.4}, {X: 1.8, Y: 0.4}, {X: 3, Y: hb}, {X: 3}}
	for i := range want {
		if !r2Equal(pts[i], want[i], 1e-15) {
			t.Errorf("corner %d at %v, want %v", i, pts[i], want[i])
		}
	}
	rf := hf / math.Tan((math.Pi/2-0.5)/2) * 0.9999
	rb := hb / math.Tan((math.Pi/2-0.2)/2) * 0.9999
	wantF := []float64{0, rf, 0.04, 0.08, rb, 0}
	for i := range wantF {
		if math.Abs(fillets[i]-wantF[i]) > 1e-15 {
			t.Errorf("fillet %d is %g, want %g", i, fillets[i], wantF[i])
		}
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		mod  func(p *Parameters)
	}{
		{"kind", func(p *Parameters) { p.Kind = 4 }},
		{"radius", func(p *Parameters) { p.Radius = 0 }},
		{"short", func(p *Parameters) { p.Length = 1.5 }},
		{"front angle", func(p *Parameters) { p.FrontAngle = 1 }},
		{"back angle", func(p *Parameters) { p.BackAngle = 0.4 }},
		{"fillet", func(p *Parameters) { p.BackFillet = -0.1 }},
		{"fillet too large", func(p *Parameters) { p.FrontFillet = 5 }},
	}
	for _, test := range tests {
		p := DefaultParameters()
		test.mod(&p)
		if _, err := p.Outline(); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("%s: got %v", test.name, err)
		}
	}
	if k, ok := ParseKind("biconic"); !ok || k != Biconic {
		t.Error("parse biconic")
	}
	if _, ok := ParseKind("conic"); ok {
		t.Error("parsed unknown hub type")
	}
}

// revolvedVolume returns the volume swept by the closed polygon in the
// (axial, radial) plane by Pappus's theorem.
func revolvedVolume(pts []r2.Vec) float64 {
	var s float64
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		s += (a.X*b.Y - b.X*a.Y) * (a.Y + b.Y)
	}
	return math.Abs(2 * math.Pi * s / 6)
}

func TestSolid(t *testing.T) {
	p := DefaultParameters()
	k := facet.New()
	s, err := Solid(k, p)
	if err != nil {
		t.Fatal(err)
	}
	pts, _ := p.Outline()
	m, err := k.Mesh(s)
	if err != nil {
		t.Fatal(err)
	}
	want := revolvedVolume(pts)
	if got := m.Volume(); math.Abs(got-want) > 5e-3*want {
		t.Errorf("volume %g, want %g", got, want)
	}
	bb := s.BoundingBox()
	if math.Abs(bb.Min.X) > 1e-12 || math.Abs(bb.Max.X-p.Length) > 1e-12 {
		t.Errorf("axial extent [%g, %g]", bb.Min.X, bb.Max.X)
	}
	if math.Abs(bb.Max.Z-p.Radius) > 1e-9 {
		t.Errorf("radius %g", bb.Max.Z)
	}
	if len(k.Solids(s)) != 1 {
		t.Error("hub is not a single solid")
	}
}

func r2Equal(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}
