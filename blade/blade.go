// Package blade builds a rotor blade from airfoil sections whose parameters
// vary with radius. The blade surface is a function of a chordwise
// coordinate u and a spanwise coordinate v, both normalized to [0,1],
// sampled into patches split at chordwise seams and closed by cylindrical
// caps at the root and tip radii.
package blade

import (
	"fmt"
	"math"
	"sync"

	"github.com/soypat/axial"
	"github.com/soypat/axial/profile"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// AngleFunc returns an angle in radians as a function of radius.
type AngleFunc func(r float64) float64

// Parameters describe a blade spanning [MinRadius, MaxRadius] about an axis.
type Parameters struct {
	Kind axial.ProfileKind
	// Length is the blade's axial length.
	Length float64
	// Thickness is the absolute section thickness.
	Thickness      float64
	CamberPosition float64
	MinRadius      float64
	MaxRadius      float64
	// Axis and Origin place the blade. The blade is built about +X through
	// the origin and rotated onto Axis.
	Axis   r3.Vec
	Origin r3.Vec
	// LeadAngle is the leading edge angle at radius r.
	LeadAngle AngleFunc
	// CamberAngle is the difference between the leading and trailing edge
	// angles at radius r.
	CamberAngle AngleFunc
}

// DefaultParameters returns a NACA blade of unit length from radius 0.5 to 1.5.
func DefaultParameters() Parameters {
	return Parameters{
		Kind:           axial.NACA,
		Length:         1,
		Thickness:      0.05,
		CamberPosition: 0.4,
		MinRadius:      0.5,
		MaxRadius:      1.5,
		Axis:           r3.Vec{X: 1},
		LeadAngle:      math.Atan,
		CamberAngle:    func(float64) float64 { return 0.1 },
	}
}

// Validate checks p. Errors wrap axial.ErrInvalidInput.
func (p Parameters) Validate() error {
	var msg string
	switch {
	case p.Kind != axial.Flat && p.Kind != axial.NACA:
		msg = fmt.Sprintf("unknown profile kind %d", p.Kind)
	case !(p.Length > 0):
		msg = fmt.Sprintf("length %g must be positive", p.Length)
	case !(p.Thickness > 0):
		msg = fmt.Sprintf("thickness %g must be positive", p.Thickness)
	case !(p.CamberPosition > 0 && p.CamberPosition < 1):
		msg = fmt.Sprintf("camber position %g not in (0,1)", p.CamberPosition)
	case !(p.MinRadius > 0 && p.MinRadius < p.MaxRadius):
		msg = fmt.Sprintf("radii [%g, %g] need 0 < min < max", p.MinRadius, p.MaxRadius)
	case r3.Norm(p.Axis) == 0:
		msg = "zero axis"
	case p.LeadAngle == nil || p.CamberAngle == nil:
		msg = "nil angle function"
	default:
		return nil
	}
	return fmt.Errorf("blade: %s: %w", msg, axial.ErrInvalidInput)
}

type section struct {
	params profile.Parameters
	pl     profile.Pipeline
}

// Blade evaluates the blade surface. Sections are derived lazily per radius
// and cached. A Blade is safe for concurrent use.
type Blade struct {
	p      Parameters
	camber profile.CamberSolver

	mu       sync.Mutex
	sections map[float64]section
}

// New validates p and returns its blade. The root and tip sections are
// derived eagerly so that unbuildable parameters fail here.
func New(p Parameters) (*Blade, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &Blade{p: p, sections: make(map[float64]section)}
	for _, r := range []float64{p.MinRadius, p.MaxRadius} {
		if _, err := b.Section(r); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Parameters returns the blade's parameters.
func (b *Blade) Parameters() Parameters { return b.p }

// Radius returns the radius at spanwise coordinate v.
func (b *Blade) Radius(v float64) float64 {
	return b.p.MinRadius + v*(b.p.MaxRadius-b.p.MinRadius)
}

// Section returns the airfoil section parameters at radius r. The chord is
// stretched so that the staggered section spans the blade length and the
// section is centered on the X axis.
func (b *Blade) Section(r float64) (profile.Parameters, error) {
	s, err := b.section(r)
	return s.params, err
}

func (b *Blade) section(r float64) (section, error) {
	b.mu.Lock()
	s, ok := b.sections[r]
	b.mu.Unlock()
	if ok {
		return s, nil
	}
	lea := b.p.LeadAngle(r)
	tea := lea - b.p.CamberAngle(r)
	m, alpha, err := b.camber.Solve(lea, tea, b.p.CamberPosition)
	if err != nil {
		return section{}, fmt.Errorf("blade section at radius %g: %w", r, err)
	}
	chord := b.p.Length / math.Cos(alpha)
	pp := profile.Parameters{
		Kind:           b.p.Kind,
		Chord:          chord,
		HalfWidth:      b.p.Thickness / (2 * chord),
		MaxCamber:      m,
		CamberPosition: b.p.CamberPosition,
		Angle:          alpha,
		Radius:         r,
		Axis:           r2.Vec{X: 1},
		Offset:         r2.Vec{Y: -0.5 * chord * math.Sin(alpha)},
	}
	pl, err := profile.New(pp)
	if err != nil {
		return section{}, fmt.Errorf("blade section at radius %g: %w", r, err)
	}
	pl.Wrap = profile.XWrap{Radius: r}
	s = section{params: pp, pl: pl}
	b.mu.Lock()
	if prev, ok := b.sections[r]; ok {
		s = prev
	} else {
		b.sections[r] = s
	}
	b.mu.Unlock()
	return s, nil
}

// Point returns the blade surface point at (u, v). u in [0, 0.5) runs along
// the top side from leading to trailing edge and u in [0.5, 1] returns along
// the bottom side.
func (b *Blade) Point(u, v float64) (r3.Vec, error) {
	if !(u >= 0 && u <= 1) || !(v >= 0 && v <= 1) {
		return r3.Vec{}, fmt.Errorf("blade point (%g, %g) outside unit square: %w", u, v, axial.ErrInvalidInput)
	}
	s, err := b.section(b.Radius(v))
	if err != nil {
		return r3.Vec{}, err
	}
	if u < 0.5 {
		return s.pl.Point(2*u, true), nil
	}
	return s.pl.Point(2*(1-u), false), nil
}
