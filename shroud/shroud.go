// Package shroud builds the ring enclosing the blade tips: a thin tube about
// +X with slanted, filleted ends.
package shroud

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/outline"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r2"
)

// Parameters describe a shroud whose inner surface spans [0, Length] at
// radius Radius.
type Parameters struct {
	Length    float64
	Radius    float64
	Thickness float64
	// Slant is the angle in radians between the inner surface and the
	// slanted ends.
	Slant float64
	// InFillet and OutFillet round the inner and outer corners.
	InFillet, OutFillet float64
	// Facets is the number of segments of each fillet arc.
	Facets int
}

// DefaultParameters returns a unit shroud.
func DefaultParameters() Parameters {
	return Parameters{
		Length:    1,
		Radius:    1,
		Thickness: 0.05,
		Slant:     1.2,
		InFillet:  0.01,
		OutFillet: 0.02,
		Facets:    8,
	}
}

// OuterRadius returns the radius of the outer surface.
func (p Parameters) OuterRadius() float64 { return p.Radius + p.Thickness }

// SlantLength returns the axial extent of each slanted end.
func (p Parameters) SlantLength() float64 { return p.Thickness / math.Tan(p.Slant) }

// Validate checks p. Errors wrap axial.ErrInvalidInput.
func (p Parameters) Validate() error {
	var msg string
	switch {
	case !(p.Radius > 0):
		msg = fmt.Sprintf("radius %g must be positive", p.Radius)
	case !(p.Thickness > 0):
		msg = fmt.Sprintf("thickness %g must be positive", p.Thickness)
	case !(p.Slant > 0 && p.Slant <= math.Pi/2):
		msg = fmt.Sprintf("slant angle %g not in (0, pi/2]", p.Slant)
	case !(p.Length > 2*p.SlantLength()):
		msg = fmt.Sprintf("length %g too short for slanted ends of %g", p.Length, p.SlantLength())
	case !(p.InFillet >= 0 && p.OutFillet >= 0):
		msg = "negative fillet radius"
	case p.Facets < 1:
		msg = fmt.Sprintf("%d fillet facets", p.Facets)
	default:
		return nil
	}
	return fmt.Errorf("shroud: %s: %w", msg, axial.ErrInvalidInput)
}

// Corners returns the cross-section corners in the (axial, radial) plane and
// their fillet radii.
func (p Parameters) Corners() ([]r2.Vec, []float64, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	sl, out := p.SlantLength(), p.OuterRadius()
	pts := []r2.Vec{
		{X: 0, Y: p.Radius},
		{X: sl, Y: out},
		{X: p.Length - sl, Y: out},
		{X: p.Length, Y: p.Radius},
	}
	return pts, []float64{p.InFillet, p.OutFillet, p.OutFillet, p.InFillet}, nil
}

// Outline returns the closed cross-section with every fillet expanded.
func (p Parameters) Outline() ([]r2.Vec, error) {
	pts, fillets, err := p.Corners()
	if err != nil {
		return nil, err
	}
	b := outline.New()
	for i, pt := range pts {
		b.AddVec(pt).Smooth(fillets[i], p.Facets)
	}
	b.Close()
	vs, err := b.Vertices()
	if err != nil {
		return nil, fmt.Errorf("shroud outline: %v: %w", err, axial.ErrInvalidInput)
	}
	return vs, nil
}

// Solid revolves the shroud cross-section a full turn about +X.
func Solid(k kernel.Builder, p Parameters) (kernel.Shape, error) {
	pts, err := p.Outline()
	if err != nil {
		return nil, err
	}
	f, err := k.PolygonFace(kernel.Planar(pts))
	if err != nil {
		return nil, fmt.Errorf("shroud section: %w", err)
	}
	s, err := k.Revolve(f, kernel.XAxis, 2*math.Pi)
	if err != nil {
		return nil, fmt.Errorf("shroud: %w", err)
	}
	log.WithFields(log.Fields{"radius": p.Radius, "vertices": len(pts)}).Debug("shroud built")
	return s, nil
}
