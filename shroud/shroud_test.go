package shroud

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel/facet"
)

func TestCorners(t *testing.T) {
	p := DefaultParameters()
	p.Length, p.Radius, p.Slant = 1.2, 1.5, 1
	pts, fillets, err := p.Corners()
	if err != nil {
		t.Fatal(err)
	}
	sl := 0.05 / math.Tan(1)
	if math.Abs(p.SlantLength()-sl) > 1e-15 || p.OuterRadius() != 1.55 {
		t.Fatalf("slant length %g, outer radius %g", p.SlantLength(), p.OuterRadius())
	}
	if pts[0].X != 0 || pts[0].Y != 1.5 || pts[3].X != 1.2 || pts[3].Y != 1.5 {
		t.Errorf("inner corners %v %v", pts[0], pts[3])
	}
	if math.Abs(pts[1].X-sl) > 1e-15 || math.Abs(pts[2].X-(1.2-sl)) > 1e-15 || pts[1].Y != 1.55 || pts[2].Y != 1.55 {
		t.Errorf("outer corners %v %v", pts[1], pts[2])
	}
	if fillets[0] != 0.01 || fillets[1] != 0.02 || fillets[2] != 0.02 || fillets[3] != 0.01 {
		t.Errorf("fillets %v", fillets)
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		mod  func(p *Parameters)
	}{
		{"radius", func(p *Parameters) { p.Radius = -1 }},
		{"thickness", func(p *Parameters) { p.Thickness = 0 }},
		{"slant", func(p *Parameters) { p.Slant = 0 }},
		{"short", func(p *Parameters) { p.Slant = 0.01 }},
		{"facets", func(p *Parameters) { p.Facets = 0 }},
		{"fillet too large", func(p *Parameters) { p.InFillet = 0.5 }},
	}
	for _, test := range tests {
		p := DefaultParameters()
		test.mod(&p)
		if _, err := p.Outline(); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("%s: got %v", test.name, err)
		}
	}
}

func TestSolid(t *testing.T) {
	p := DefaultParameters()
	k := facet.New()
	s, err := Solid(k, p)
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.Mesh(s)
	if err != nil {
		t.Fatal(err)
	}
	// Thin ring: about 2*pi*r*t*(L-sl).
	approx := 2 * math.Pi * (p.Radius + p.Thickness/2) * p.Thickness * (p.Length - p.SlantLength())
	if got := m.Volume(); math.Abs(got-approx) > 0.02*approx {
		t.Errorf("volume %g, want about %g", got, approx)
	}
	bb := s.BoundingBox()
	// Filleted corners pull the ends in slightly.
	if math.Abs(bb.Max.Z-p.OuterRadius()) > 1e-3 || bb.Max.X > p.Length+1e-12 || bb.Max.X < p.Length-0.02 {
		t.Errorf("bounding box %+v", bb)
	}
}
