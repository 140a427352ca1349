// Package profile generates airfoil sections and the transform pipeline that
// bends, staggers and wraps them onto a cylinder of constant radius.
//
// The closed-form functions of this package panic when their preconditions
// are violated. Parameters.Validate reports the same conditions as errors and
// should be called before any point is computed.
package profile

import (
	"fmt"
	"math"

	"github.com/soypat/axial"
	"gonum.org/v1/gonum/spatial/r2"
)

// NACA 4-digit trailing edge coefficients.
const (
	nacaOpenTE   = 0.1015
	nacaClosedTE = 0.1036
)

// Parameters fully determine the mapping of an airfoil section from its
// chordwise parameter onto a cylinder.
type Parameters struct {
	Kind axial.ProfileKind
	// Chord is the chord length.
	Chord float64
	// HalfWidth is the half thickness relative to the chord.
	HalfWidth float64
	// MaxCamber is the camber line's maximum height relative to the chord.
	MaxCamber float64
	// CamberPosition is the chordwise position of maximum camber in (0,1).
	CamberPosition float64
	// Angle is the stagger angle in radians.
	Angle float64
	// Radius is the wrap radius.
	Radius float64
	// Axis and Origin define the wrap axis of CylinderWrap.
	Axis   r2.Vec
	Origin r2.Vec
	// Offset translates the staggered section before wrapping.
	Offset r2.Vec
	// OpenTrailingEdge selects the open NACA trailing edge. Ignored by Flat.
	OpenTrailingEdge bool
}

// DefaultParameters returns the parameters of a thin, slightly cambered
// NACA section wrapped on the unit cylinder about +X.
func DefaultParameters() Parameters {
	return Parameters{
		Kind:           axial.NACA,
		Chord:          1,
		HalfWidth:      0.025,
		MaxCamber:      0.01,
		CamberPosition: 0.4,
		Angle:          1,
		Radius:         1,
		Axis:           r2.Vec{X: 1},
	}
}

// Validate checks the preconditions of every stage built from p.
// Errors wrap axial.ErrInvalidInput.
func (p Parameters) Validate() error {
	var msg string
	switch {
	case p.Kind != axial.Flat && p.Kind != axial.NACA:
		msg = fmt.Sprintf("unknown profile kind %d", p.Kind)
	case !(p.Chord > 0):
		msg = fmt.Sprintf("chord %g must be positive", p.Chord)
	case !(p.HalfWidth >= 0):
		msg = fmt.Sprintf("half width %g must not be negative", p.HalfWidth)
	case p.Kind == axial.Flat && !(p.Chord > 4*p.HalfWidth):
		msg = fmt.Sprintf("flat profile needs chord > 4*half width, got chord %g and half width %g", p.Chord, p.HalfWidth)
	case !(p.CamberPosition > 0 && p.CamberPosition < 1):
		msg = fmt.Sprintf("camber position %g not in (0,1)", p.CamberPosition)
	case math.IsNaN(p.MaxCamber) || math.IsInf(p.MaxCamber, 0):
		msg = fmt.Sprintf("max camber %g", p.MaxCamber)
	case math.IsNaN(p.Angle) || math.IsInf(p.Angle, 0):
		msg = fmt.Sprintf("angle %g", p.Angle)
	case !(p.Radius > 0):
		msg = fmt.Sprintf("wrap radius %g must be positive", p.Radius)
	case r2.Norm(p.Axis) == 0:
		msg = "wrap axis is zero"
	default:
		return nil
	}
	return fmt.Errorf("profile: %s: %w", msg, axial.ErrInvalidInput)
}

// FlatEllipse returns a point on a flat plate of relative half width w and
// chord c with elliptical leading and trailing edges, at chordwise parameter
// t in [0,1]. The bottom side mirrors the top.
func FlatEllipse(t, w, c float64, top bool) r2.Vec {
	if !(c > 4*w) {
		panic("flat profile requires c > 4*w")
	}
	if t < 0 || t > 1 {
		panic("profile parameter out of [0,1]")
	}
	a := 2 * w * c
	b := w * c
	x := t * c
	var y float64
	switch {
	case x < a:
		d := (x - a) / a
		y = b * math.Sqrt(math.Max(0, 1-d*d))
	case x < c-a:
		y = w * c
	default:
		d := (x - c + a) / a
		y = b * math.Sqrt(math.Max(0, 1-d*d))
	}
	if !top {
		y = -y
	}
	return r2.Vec{X: x, Y: y}
}

// NACA returns a point on the NACA 4-digit symmetric thickness law of
// relative half width w and chord c at chordwise parameter t in [0,1].
// closed selects the zero-thickness trailing edge.
func NACA(t, w, c float64, top, closed bool) r2.Vec {
	if t < 0 || t > 1 {
		panic("profile parameter out of [0,1]")
	}
	k := nacaOpenTE
	if closed {
		k = nacaClosedTE
	}
	t2 := t * t
	y := 5 * w * c * (0.2969*math.Sqrt(t) - 0.1260*t - 0.3516*t2 + 0.2843*t2*t - k*t2*t2)
	if !top {
		y = -y
	}
	return r2.Vec{X: t * c, Y: y}
}

// Bend places p, given relative to a straight chord of length c, on the
// parabolic camber line of maximum camber m at relative position pos.
func Bend(p r2.Vec, m, pos, c float64) r2.Vec {
	if p.X < 0 || p.X > c {
		panic("bend: x out of [0, c]")
	}
	if pos <= 0 || pos >= 1 {
		panic("bend: camber position out of (0,1)")
	}
	xc := p.X / c
	var yc, dyc float64
	if p.X < pos*c {
		yc = m * c * xc * (2*pos - xc) / (pos * pos)
		dyc = 2 * m / (pos * pos) * (pos - xc)
	} else {
		q := 1 - pos
		yc = m * c * (1 - xc) * (1 + xc - 2*pos) / (q * q)
		dyc = 2 * m / (q * q) * (pos - xc)
	}
	s, co := math.Sincos(math.Atan(dyc))
	return r2.Vec{X: p.X - p.Y*s, Y: yc + p.Y*co}
}
