package blade

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
	"github.com/soypat/axial/kernel/facet"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewValidate(t *testing.T) {
	var tests = []struct {
		name string
		mod  func(p *Parameters)
	}{
		{"kind", func(p *Parameters) { p.Kind = 3 }},
		{"length", func(p *Parameters) { p.Length = 0 }},
		{"thickness", func(p *Parameters) { p.Thickness = -1 }},
		{"camber position", func(p *Parameters) { p.CamberPosition = 1 }},
		{"radii order", func(p *Parameters) { p.MinRadius, p.MaxRadius = 2, 1 }},
		{"zero radius", func(p *Parameters) { p.MinRadius = 0 }},
		{"axis", func(p *Parameters) { p.Axis = r3.Vec{} }},
		{"lead", func(p *Parameters) { p.LeadAngle = nil }},
		{"thick flat", func(p *Parameters) { p.Kind = axial.Flat; p.Thickness = 0.9 }},
	}
	for _, test := range tests {
		p := DefaultParameters()
		test.mod(&p)
		if _, err := New(p); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("%s: got %v, want invalid input", test.name, err)
		}
	}
	if _, err := New(DefaultParameters()); err != nil {
		t.Fatal(err)
	}
}

func TestSection(t *testing.T) {
	p := DefaultParameters()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []float64{0.5, 0.8, 1, 1.5} {
		s, err := b.Section(r)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Chord * math.Cos(s.Angle); math.Abs(got-p.Length) > 1e-12 {
			t.Errorf("r=%g: axial chord projection %g, want %g", r, got, p.Length)
		}
		if got := 2 * s.HalfWidth * s.Chord; math.Abs(got-p.Thickness) > 1e-12 {
			t.Errorf("r=%g: thickness %g", r, got)
		}
		if got := s.Offset.Y + 0.5*s.Chord*math.Sin(s.Angle); math.Abs(got) > 1e-12 {
			t.Errorf("r=%g: section not centered, offset %v", r, s.Offset)
		}
		if s.Radius != r {
			t.Errorf("wrap radius %g, want %g", s.Radius, r)
		}
		lea := p.LeadAngle(r)
		if res := 2*s.MaxCamber/s.CamberPosition - math.Tan(lea-s.Angle); math.Abs(res) > 1e-8 {
			t.Errorf("r=%g: leading edge angle residual %g", r, res)
		}
		again, _ := b.Section(r)
		if again != s {
			t.Errorf("r=%g: cached section differs", r)
		}
	}
}

func TestPoint(t *testing.T) {
	b, err := New(DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []float64{0, 0.3, 1} {
		r := b.Radius(v)
		le0, _ := b.Point(0, v)
		le1, _ := b.Point(1, v)
		if r3.Norm(r3.Sub(le0, le1)) > 1e-15 {
			t.Errorf("v=%g: leading edge not closed: %v %v", v, le0, le1)
		}
		for _, u := range axial.Linspace(0, 1, 25) {
			p, err := b.Point(u, v)
			if err != nil {
				t.Fatal(err)
			}
			if d := math.Hypot(p.Y, p.Z); math.Abs(d-r) > 1e-12 {
				t.Fatalf("(%g,%g): radius %g, want %g", u, v, d, r)
			}
		}
		// Trailing edge at u=0.5 is the end of both sides.
		te, _ := b.Point(0.5, v)
		near, _ := b.Point(0.5-1e-9, v)
		if r3.Norm(r3.Sub(te, near)) > 1e-6 {
			t.Errorf("v=%g: sides do not meet at the trailing edge", v)
		}
	}
	if _, err := b.Point(1.1, 0); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("u outside [0,1]: %v", err)
	}
}

func TestSeamIntervals(t *testing.T) {
	seamSets := [][]float64{
		{0.25, 0.75},
		{0.5},
		{0.9, 0.1, 0.2},
		{0.01, 0.5, 0.51, 0.99},
	}
	for _, seams := range seamSets {
		orig := append([]float64(nil), seams...)
		ivs, err := SeamIntervals(seams)
		if err != nil {
			t.Fatal(err)
		}
		for i := range seams {
			if seams[i] != orig[i] {
				t.Fatalf("%v: seams modified", orig)
			}
		}
		sorted := append([]float64(nil), seams...)
		sort.Float64s(sorted)
		if len(ivs) != len(sorted) {
			t.Fatalf("%v: %d intervals", seams, len(ivs))
		}
		// Consecutive intervals meet exactly at the seams.
		for i := range ivs {
			next := ivs[(i+1)%len(ivs)]
			if ivs[i].Hi != next.Lo {
				t.Errorf("%v: interval %d ends at %g, next starts at %g", seams, i, ivs[i].Hi, next.Lo)
			}
			if ivs[i].Hi != sorted[i] {
				t.Errorf("%v: interval %d bounded at %g, want seam %g", seams, i, ivs[i].Hi, sorted[i])
			}
		}
		us := append(axial.Linspace(0, 1, 1001), sorted...)
		for _, u := range us {
			covered := false
			for _, iv := range ivs {
				covered = covered || iv.Contains(u)
			}
			if !covered {
				t.Fatalf("%v: u=%g not covered", seams, u)
			}
		}
	}
	for _, bad := range [][]float64{nil, {0}, {1}, {0.3, 0.3}, {-0.1, 0.5}, {math.NaN()}} {
		if _, err := SeamIntervals(bad); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("seams %v: got %v", bad, err)
		}
	}
}

func TestUValues(t *testing.T) {
	var tests = []struct {
		n    int
		ease axial.Easing
		want int
	}{
		{41, axial.Smootherstep, 80},
		{41, axial.Linear, 80},
		{10, axial.Smootherstep, 20},
		{3, axial.Linear, 4},
	}
	for _, test := range tests {
		s := Sampling{UPoints: test.n, UEase: test.ease, Seams: DefaultSeams()}
		u, err := s.UValues()
		if err != nil {
			t.Fatal(err)
		}
		if len(u) != test.want {
			t.Errorf("n=%d: %d samples, want %d", test.n, len(u), test.want)
		}
		if u[0] != 0 || u[len(u)-1] >= 1 {
			t.Errorf("n=%d: samples span [%g, %g]", test.n, u[0], u[len(u)-1])
		}
		for i := 1; i < len(u); i++ {
			if u[i] <= u[i-1] {
				t.Fatalf("n=%d: samples not increasing at %d", test.n, i)
			}
		}
		for _, seam := range s.Seams {
			if i := sort.SearchFloat64s(u, seam); i == len(u) || u[i] != seam {
				t.Errorf("n=%d: seam %g missing", test.n, seam)
			}
		}
		ivs, _ := SeamIntervals(s.Seams)
		for p, idx := range patchIndices(u, ivs) {
			if u[idx[0]] != ivs[p].Lo || u[idx[len(idx)-1]] != ivs[p].Hi {
				t.Errorf("n=%d: patch %d spans [%g, %g], want %+v", test.n, p, u[idx[0]], u[idx[len(idx)-1]], ivs[p])
			}
		}
	}
}

func TestSamplingValidate(t *testing.T) {
	b, err := New(DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	k := facet.New()
	var tests = []func(s *Sampling){
		func(s *Sampling) { s.UPoints = 2 },
		func(s *Sampling) { s.VPoints = 1 },
		func(s *Sampling) { s.Method = 5 },
		func(s *Sampling) { s.Tolerance = 0 },
		func(s *Sampling) { s.Seams = nil },
		func(s *Sampling) { s.Seams = []float64{0.5, 1} },
	}
	for i, mod := range tests {
		s := DefaultSampling()
		mod(&s)
		if _, err := b.Patches(k, s); !errors.Is(err, axial.ErrInvalidInput) {
			t.Errorf("case %d: got %v", i, err)
		}
	}
	s := DefaultSampling()
	s.Seams[0] = 0.3
	if DefaultSeams()[0] != 0.25 {
		t.Error("default seams shared between calls")
	}
	if d := DefaultSampling(); d.UEase(0.25) != axial.Smootherstep(0.25) || d.VEase(0.25) != axial.Smootherstep(0.25) {
		t.Error("default sampling is not eased towards both ends")
	}
}

func e2eSampling() Sampling {
	s := DefaultSampling()
	s.UPoints, s.VPoints = 41, 10
	s.UEase, s.VEase = axial.Smootherstep, axial.Smootherstep
	return s
}

func TestBladeSolid(t *testing.T) {
	p := DefaultParameters()
	p.Kind = axial.Flat
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	k := facet.New()
	s := e2eSampling()
	patches, err := b.Patches(k, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 2 {
		t.Fatalf("%d patches, want 2", len(patches))
	}
	patchEdges := make(map[kernel.Edge]bool)
	for _, f := range patches {
		for _, e := range k.FaceEdges(f) {
			patchEdges[e] = true
		}
	}
	for _, r := range []float64{p.MinRadius, p.MaxRadius} {
		c, err := b.Cap(k, patches, r)
		if err != nil {
			t.Fatalf("cap at %g: %v", r, err)
		}
		edges := k.FaceEdges(c)
		if len(edges) != len(patches) {
			t.Errorf("cap at %g bounded by %d edges", r, len(edges))
		}
		for _, e := range edges {
			if !patchEdges[e] {
				t.Errorf("cap at %g: edge is not a patch edge", r)
			}
			if !kernel.EdgeAtRadius(e, kernel.XAxis, r, axial.BladeCapRadiusTol) {
				t.Errorf("cap at %g: edge off radius", r)
			}
		}
	}
	if _, err := b.Cap(k, patches, 1); !errors.Is(err, axial.ErrConstruction) {
		t.Errorf("cap at mid span: got %v", err)
	}

	solid, err := b.Solid(k, s)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(k.Solids(solid)); n != 1 {
		t.Fatalf("%d solids", n)
	}
	if n := len(k.Faces(solid)); n != 4 {
		t.Errorf("%d faces, want 2 patches and 2 caps", n)
	}
	m, err := k.Mesh(solid)
	if err != nil {
		t.Fatal(err)
	}
	if v := m.Volume(); v < 0.03 || v > 0.12 {
		t.Errorf("blade volume %g", v)
	}
	bb := solid.BoundingBox()
	if bb.Max.X-bb.Min.X < p.Length*0.99 || bb.Max.X-bb.Min.X > p.Length*1.12 {
		t.Errorf("axial extent %g, want about %g", bb.Max.X-bb.Min.X, p.Length)
	}
	if r := math.Max(bb.Max.Z, bb.Max.Y); r > p.MaxRadius+1e-3 {
		t.Errorf("blade reaches radius %g", r)
	}
}

func TestPatchesStayInBand(t *testing.T) {
	p := DefaultParameters()
	p.Kind = axial.Flat
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	k := facet.New()
	clustered := e2eSampling()
	linear := e2eSampling()
	linear.UEase, linear.VEase = axial.Linear, axial.Linear
	for name, s := range map[string]Sampling{
		"clustered": clustered,
		"linear":    linear,
		"default":   DefaultSampling(),
	} {
		patches, err := b.Patches(k, s)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for i, f := range patches {
			surf := f.Surface()
			u0, u1, v0, v1 := surf.Domain()
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, u := range axial.Linspace(u0, u1, 201) {
				for _, v := range axial.Linspace(v0, v1, 51) {
					r := kernel.XAxis.RadialDistance(surf.Evaluate(u, v))
					lo, hi = math.Min(lo, r), math.Max(hi, r)
				}
			}
			if lo < p.MinRadius-1e-2 || hi > p.MaxRadius+1e-2 {
				t.Errorf("%s patch %d spans radii [%g,%g], want within [%g,%g]", name, i, lo, hi, p.MinRadius, p.MaxRadius)
			}
		}
	}
}

func TestSectionCurve(t *testing.T) {
	b, err := New(DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.SectionCurve(facet.New(), 0.5, 64)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := b.Point(0, 0.5)
	if got := c.Evaluate(0); r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("curve starts at %v, want %v", got, want)
	}
	if _, err := b.SectionCurve(facet.New(), 0.5, 3); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("3 samples: %v", err)
	}
}

type recordTransformer struct {
	axes   []kernel.Axis
	angles []float64
	moves  []r3.Vec
}

func (r *recordTransformer) Translate(s kernel.Shape, v r3.Vec) kernel.Shape {
	r.moves = append(r.moves, v)
	return s
}

func (r *recordTransformer) Rotate(s kernel.Shape, axis kernel.Axis, angle float64) kernel.Shape {
	r.axes = append(r.axes, axis)
	r.angles = append(r.angles, angle)
	return s
}

func TestPlace(t *testing.T) {
	var tests = []struct {
		axis, origin r3.Vec
		rotAxis      r3.Vec
		angle        float64
		rotates      bool
	}{
		{axis: r3.Vec{X: 2}},
		{axis: r3.Vec{Y: 1}, rotAxis: r3.Vec{Z: 1}, angle: math.Pi / 2, rotates: true},
		{axis: r3.Vec{X: -1}, rotAxis: r3.Vec{Z: 1}, angle: math.Pi, rotates: true},
		{axis: r3.Vec{X: 1}, origin: r3.Vec{Y: 3}},
	}
	for _, test := range tests {
		b := &Blade{p: Parameters{Axis: test.axis, Origin: test.origin}}
		var rec recordTransformer
		b.place(&rec, nil)
		if test.rotates != (len(rec.axes) == 1) {
			t.Fatalf("axis %v: %d rotations", test.axis, len(rec.axes))
		}
		if test.rotates {
			if r3.Norm(r3.Sub(rec.axes[0].Dir, test.rotAxis)) > 1e-12 || math.Abs(rec.angles[0]-test.angle) > 1e-12 {
				t.Errorf("axis %v: rotated %g about %v", test.axis, rec.angles[0], rec.axes[0].Dir)
			}
		}
		if (test.origin != r3.Vec{}) != (len(rec.moves) == 1) {
			t.Errorf("origin %v: %d translations", test.origin, len(rec.moves))
		}
	}
}
