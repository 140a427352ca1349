package profile

import (
	"fmt"
	"math"

	"github.com/soypat/axial"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Thickness generates the uncambered section.
type Thickness struct {
	Kind      axial.ProfileKind
	HalfWidth float64
	Chord     float64
	// Closed selects the closed NACA trailing edge.
	Closed bool
}

// Point returns the point of side top at chordwise parameter t.
func (s Thickness) Point(t float64, top bool) r2.Vec {
	switch s.Kind {
	case axial.Flat:
		return FlatEllipse(t, s.HalfWidth, s.Chord, top)
	case axial.NACA:
		return NACA(t, s.HalfWidth, s.Chord, top, s.Closed)
	}
	panic("unknown profile kind")
}

// Camber bends sections onto a camber line.
type Camber struct {
	Max      float64
	Position float64
	Chord    float64
}

func (s Camber) Apply(p r2.Vec) r2.Vec { return Bend(p, s.Max, s.Position, s.Chord) }

// Rotation turns sections counter-clockwise about the origin.
type Rotation struct {
	Angle float64
}

func (s Rotation) Apply(p r2.Vec) r2.Vec {
	sin, cos := math.Sincos(s.Angle)
	return r2.Vec{X: cos*p.X - sin*p.Y, Y: sin*p.X + cos*p.Y}
}

// Translation offsets sections.
type Translation struct {
	Offset r2.Vec
}

func (s Translation) Apply(p r2.Vec) r2.Vec { return r2.Add(p, s.Offset) }

// Wrapper maps planar section points onto a surface.
type Wrapper interface {
	Wrap(p r2.Vec) r3.Vec
}

// XWrap wraps the plane around the X axis: y becomes arc length on the
// cylinder of radius Radius.
type XWrap struct {
	Radius float64
}

func (s XWrap) Wrap(p r2.Vec) r3.Vec {
	if !(s.Radius > 0) {
		panic("wrap radius must be positive")
	}
	sin, cos := math.Sincos(p.Y / s.Radius)
	return r3.Vec{X: p.X, Y: s.Radius * sin, Z: s.Radius * cos}
}

// CylinderWrap wraps the plane around the in-plane line through Origin
// along Axis. The distance from the line becomes arc length.
type CylinderWrap struct {
	Radius float64
	Axis   r2.Vec
	Origin r2.Vec
}

func (s CylinderWrap) Wrap(p r2.Vec) r3.Vec {
	if !(s.Radius > 0) {
		panic("wrap radius must be positive")
	}
	n := r2.Norm(s.Axis)
	if n == 0 {
		panic("wrap axis is zero")
	}
	axis := r2.Scale(1/n, s.Axis)
	p = r2.Sub(p, s.Origin)
	proj := r2.Scale(r2.Dot(p, axis), axis)
	d := r2.Sub(p, proj)
	dist := r2.Norm(d)
	var dir r2.Vec
	if dist > 0 {
		dir = r2.Scale(1/dist, d)
	}
	sin, cos := math.Sincos(dist / s.Radius)
	w := r2.Add(r2.Add(proj, r2.Scale(s.Radius*sin, dir)), s.Origin)
	return r3.Vec{X: w.X, Y: w.Y, Z: s.Radius * cos}
}

// Pipeline applies the section stages left to right:
// thickness, camber, rotation, translation and wrap.
type Pipeline struct {
	Thickness   Thickness
	Camber      Camber
	Rotation    Rotation
	Translation Translation
	Wrap        Wrapper
}

// New returns the pipeline of p wrapped with CylinderWrap.
func New(p Parameters) (Pipeline, error) {
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return Pipeline{
		Thickness:   Thickness{Kind: p.Kind, HalfWidth: p.HalfWidth, Chord: p.Chord, Closed: !p.OpenTrailingEdge},
		Camber:      Camber{Max: p.MaxCamber, Position: p.CamberPosition, Chord: p.Chord},
		Rotation:    Rotation{Angle: p.Angle},
		Translation: Translation{Offset: p.Offset},
		Wrap:        CylinderWrap{Radius: p.Radius, Axis: p.Axis, Origin: p.Origin},
	}, nil
}

// Planar returns the section point before wrapping.
func (pl Pipeline) Planar(t float64, top bool) r2.Vec {
	p := pl.Thickness.Point(t, top)
	p = pl.Camber.Apply(p)
	p = pl.Rotation.Apply(p)
	return pl.Translation.Apply(p)
}

// Point returns the wrapped section point of side top at parameter t.
func (pl Pipeline) Point(t float64, top bool) r3.Vec {
	return pl.Wrap.Wrap(pl.Planar(t, top))
}

// Section samples both sides of the section at n chordwise parameters.
func (pl Pipeline) Section(n int) (top, bottom []r3.Vec, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("section needs at least 2 samples, got %d: %w", n, axial.ErrInvalidInput)
	}
	ts := axial.Linspace(0, 1, n)
	top = make([]r3.Vec, n)
	bottom = make([]r3.Vec, n)
	for i, t := range ts {
		top[i] = pl.Point(t, true)
		bottom[i] = pl.Point(t, false)
	}
	return top, bottom, nil
}
