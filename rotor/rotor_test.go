package rotor

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/axial"
	"github.com/soypat/axial/blade"
	"github.com/soypat/axial/kernel"
	"github.com/soypat/axial/kernel/facet"
)

func TestDerivedParameters(t *testing.T) {
	p := DefaultParameters()
	if got := p.BladeLength(); math.Abs(got-1.08) > 1e-12 {
		t.Errorf("blade length %g, want 1.08", got)
	}
	bp := p.BladeParameters()
	if bp.MinRadius != p.Hub.Radius || bp.MaxRadius != p.MaxRadius {
		t.Errorf("blade radii [%g, %g]", bp.MinRadius, bp.MaxRadius)
	}
	if bp.Kind != axial.Flat || bp.Length != p.BladeLength() {
		t.Errorf("blade %v of length %g", bp.Kind, bp.Length)
	}
	if got := bp.LeadAngle(1); math.Abs(got-math.Atan(3)) > 1e-15 {
		t.Errorf("lead angle at r=1 is %g", got)
	}
	hp := p.HubParameters()
	if hp.Length != p.Length {
		t.Errorf("hub length %g, want %g", hp.Length, p.Length)
	}
	sp := p.ShroudParameters()
	if math.Abs(sp.Length-1.2) > 1e-12 || sp.Radius != p.MaxRadius {
		t.Errorf("shroud length %g radius %g", sp.Length, sp.Radius)
	}
	if err := sp.Validate(); err != nil {
		t.Error(err)
	}
	if err := hp.Validate(); err != nil {
		t.Error(err)
	}
	if _, err := blade.New(bp); err != nil {
		t.Error(err)
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		mod  func(p *Parameters)
	}{
		{"blades", func(p *Parameters) { p.Blades = 0 }},
		{"clearance", func(p *Parameters) { p.Clearance = -0.1 }},
		{"no room", func(p *Parameters) { p.Clearance = 1.2 }},
		{"tip below hub", func(p *Parameters) { p.MaxRadius = 0.3 }},
		{"lead", func(p *Parameters) { p.LeadAngle = nil }},
		{"camber", func(p *Parameters) { p.CamberAngle = nil }},
	}
	k := facet.New()
	for _, test := range tests {
		p := DefaultParameters()
		test.mod(&p)
		if _, err := New(k, p); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("%s: got %v, want invalid input", test.name, err)
		}
	}
	if _, err := New(nil, DefaultParameters()); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("nil kernel: got %v", err)
	}
	e, err := New(k, DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	if e.Parameters().Blades != 4 {
		t.Error("parameters not kept")
	}
}

func TestBackoffValidate(t *testing.T) {
	var tests = []struct {
		bo Backoff
		ok bool
	}{
		{DefaultBackoff(), true},
		{Backoff{Factor: 0.5, Floor: 1}, true},
		{Backoff{Factor: 1, Floor: 0.2}, false},
		{Backoff{Factor: 0, Floor: 0.2}, false},
		{Backoff{Factor: 0.5, Floor: 0}, false},
		{Backoff{Factor: 0.5, Floor: 1.5}, false},
		{Backoff{Factor: math.NaN(), Floor: 0.5}, false},
	}
	for _, test := range tests {
		err := test.bo.Validate()
		if (err == nil) != test.ok {
			t.Errorf("%+v: got %v", test.bo, err)
		}
		if err != nil && !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("%+v: error %v does not wrap invalid input", test.bo, err)
		}
	}
}

func testSampling() blade.Sampling {
	s := blade.DefaultSampling()
	s.UPoints, s.VPoints = 41, 10
	s.UEase, s.VEase = axial.Smootherstep, axial.Smootherstep
	return s
}

func buildRotor(t *testing.T, k kernel.Kernel, smp blade.Sampling) WithBlades {
	t.Helper()
	e, err := New(k, DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	h, err := e.AddHub()
	if err != nil {
		t.Fatal(err)
	}
	s, err := h.AddShroud()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddBlades(smp)
	if err != nil {
		t.Fatal(err)
	}
	// Earlier states are not modified by later transitions.
	if h.Parts() != 1 || s.Parts() != 2 {
		t.Errorf("states share parts: hub %d, shroud %d", h.Parts(), s.Parts())
	}
	return b
}

func TestAssemble(t *testing.T) {
	k := facet.New()
	b := buildRotor(t, k, testSampling())
	p := DefaultParameters()
	if b.Parts() != 2+p.Blades {
		t.Fatalf("%d parts", b.Parts())
	}
	cand := b.Candidates()
	if len(cand) != 4*p.Blades {
		t.Errorf("%d fillet candidates, want %d", len(cand), 4*p.Blades)
	}
	for _, e := range cand {
		atHub := kernel.EdgeAtRadius(e, kernel.XAxis, p.Hub.Radius, axial.BladeCapRadiusTol)
		atTip := kernel.EdgeAtRadius(e, kernel.XAxis, p.MaxRadius, axial.BladeCapRadiusTol)
		if !atHub && !atTip {
			t.Error("candidate edge is neither on the hub nor on the tip")
		}
	}

	a, err := b.Assemble(0)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(k.Solids(a.Shape)); n != 1 {
		t.Errorf("%d solids, want 1", n)
	}
	if a.Radius != 0 || a.Attempts != 1 {
		t.Errorf("radius %g after %d attempts", a.Radius, a.Attempts)
	}
	if len(a.Candidates) == 0 || len(a.Candidates) > len(cand) {
		t.Errorf("%d surviving candidates of %d", len(a.Candidates), len(cand))
	}
	bb := a.Shape.BoundingBox()
	if bb.Min.X > 1e-9 || bb.Max.X < p.Length-1e-9 {
		t.Errorf("axial extent [%g, %g]", bb.Min.X, bb.Max.X)
	}
	outer := p.MaxRadius + p.ShroudThickness
	if bb.Max.Z > outer+1e-3 || bb.Max.Z < p.MaxRadius {
		t.Errorf("radial extent %g, want below %g", bb.Max.Z, outer)
	}

	if _, err := b.Assemble(-1); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("negative radius: got %v", err)
	}
	_, err = b.Assemble(10)
	var ferr *FilletError
	if !errors.As(err, &ferr) {
		t.Fatalf("oversized fillet: got %v, want *FilletError", err)
	}
	if !errors.Is(err, axial.ErrFilletInfeasible) {
		t.Errorf("%v does not wrap fillet infeasible", err)
	}
	if ferr.Radius != 10 || ferr.Edges != len(a.Candidates) {
		t.Errorf("fillet error reports radius %g on %d edges", ferr.Radius, ferr.Edges)
	}
}

func TestAssembleWithBackoff(t *testing.T) {
	k := facet.New()
	b := buildRotor(t, k, testSampling())
	// 10 -> 5 -> 2.5 -> none, since 0.125 is below the floor.
	a, err := b.AssembleWithBackoff(10, Backoff{Factor: 0.5, Floor: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if a.Radius != 0 || a.Attempts != 4 {
		t.Errorf("radius %g after %d attempts, want 0 after 4", a.Radius, a.Attempts)
	}
	if n := len(k.Solids(a.Shape)); n != 1 {
		t.Errorf("%d solids", n)
	}
	if _, err := b.AssembleWithBackoff(1, Backoff{Factor: 2, Floor: 0.2}); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("bad backoff: got %v", err)
	}
}

func TestAssembleFillet(t *testing.T) {
	k := facet.New()
	b := buildRotor(t, k, blade.DefaultSampling())
	sharp, err := b.Assemble(0)
	if err != nil {
		t.Fatal(err)
	}
	const radius = 0.01
	a, err := b.Assemble(radius)
	if err != nil {
		t.Fatal(err)
	}
	if a.Radius != radius || a.Attempts != 1 {
		t.Errorf("radius %g after %d attempts, want %g after 1", a.Radius, a.Attempts, radius)
	}
	if n := len(k.Solids(a.Shape)); n != 1 {
		t.Errorf("%d solids, want 1", n)
	}
	nf, ns := len(k.Faces(a.Shape)), len(k.Faces(sharp.Shape))
	if nf <= ns {
		t.Errorf("filleted rotor has %d faces, sharp one %d", nf, ns)
	}
	p := DefaultParameters()
	bb := a.Shape.BoundingBox()
	if outer := p.MaxRadius + p.ShroudThickness; bb.Max.Z > outer+1e-3 {
		t.Errorf("radial extent %g, want below %g", bb.Max.Z, outer)
	}
	bo, err := b.AssembleWithBackoff(radius, DefaultBackoff())
	if err != nil {
		t.Fatal(err)
	}
	if bo.Radius != radius || bo.Attempts != 1 {
		t.Errorf("backoff applied radius %g after %d attempts", bo.Radius, bo.Attempts)
	}
}

// brokenFillet fails every fillet with an error unrelated to feasibility.
type brokenFillet struct {
	kernel.Kernel
	calls int
}

var errBroken = errors.New("broken")

func (k *brokenFillet) Fillet(kernel.Shape, []kernel.Edge, float64) (kernel.Shape, error) {
	k.calls++
	return nil, errBroken
}

func TestBackoffAbort(t *testing.T) {
	k := &brokenFillet{Kernel: facet.New()}
	b := buildRotor(t, k, testSampling())
	_, err := b.AssembleWithBackoff(0.01, DefaultBackoff())
	if !errors.Is(err, errBroken) {
		t.Fatalf("got %v, want the kernel error", err)
	}
	var ferr *FilletError
	if !errors.As(err, &ferr) {
		t.Errorf("got %T, want *FilletError", err)
	}
	if k.calls != 1 {
		t.Errorf("fillet attempted %d times, want 1", k.calls)
	}
}
