// Package hub builds the rotor hub, a solid of revolution about +X whose
// cross-section is drawn with filleted corners.
package hub

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/d2"
	"github.com/soypat/axial/internal/outline"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kind selects the hub's shape.
type Kind int

const (
	// Biconic is a cylinder with conical front and back ends.
	Biconic Kind = iota
)

func (k Kind) String() string {
	switch k {
	case Biconic:
		return "biconic"
	}
	return "unknown"
}

// ParseKind parses the name of a hub kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "biconic", "Biconic", "BICONIC", "0":
		return Biconic, true
	}
	return 0, false
}

// Parameters describe a hub of radius Radius along [0, Length].
type Parameters struct {
	Kind   Kind
	Length float64
	Radius float64
	// FrontLength and BackLength are the axial extents of the cones.
	FrontLength, BackLength float64
	// FrontAngle and BackAngle are the cone half angles in radians.
	FrontAngle, BackAngle float64
	// FrontFillet and BackFillet round the cone to cylinder transitions.
	FrontFillet, BackFillet float64
	// Facets is the number of segments of each fillet arc.
	Facets int
}

// DefaultParameters returns the default biconic hub.
func DefaultParameters() Parameters {
	return Parameters{
		Kind:        Biconic,
		Length:      3,
		Radius:      0.4,
		FrontLength: 0.6,
		BackLength:  1.2,
		FrontAngle:  0.5,
		BackAngle:   0.2,
		FrontFillet: 0.04,
		BackFillet:  0.08,
		Facets:      8,
	}
}

// Validate checks p. Errors wrap axial.ErrInvalidInput.
func (p Parameters) Validate() error {
	var msg string
	switch {
	case p.Kind != Biconic:
		msg = fmt.Sprintf("unknown hub type %d", p.Kind)
	case !(p.Radius > 0):
		msg = fmt.Sprintf("radius %g must be positive", p.Radius)
	case !(p.FrontLength > 0 && p.BackLength > 0):
		msg = fmt.Sprintf("cone lengths %g, %g must be positive", p.FrontLength, p.BackLength)
	case !(p.Length > p.FrontLength+p.BackLength):
		msg = fmt.Sprintf("length %g must exceed the cone lengths %g", p.Length, p.FrontLength+p.BackLength)
	case !(p.FrontAngle >= 0 && p.FrontAngle < math.Pi/2 && p.BackAngle >= 0 && p.BackAngle < math.Pi/2):
		msg = fmt.Sprintf("cone angles %g, %g not in [0, pi/2)", p.FrontAngle, p.BackAngle)
	case p.Radius-p.FrontLength*math.Tan(p.FrontAngle) < 0:
		msg = "front angle too large"
	case p.Radius-p.BackLength*math.Tan(p.BackAngle) < 0:
		msg = "back angle too large"
	case !(p.FrontFillet >= 0 && p.BackFillet >= 0):
		msg = "negative fillet radius"
	case p.Facets < 1:
		msg = fmt.Sprintf("%d fillet facets", p.Facets)
	default:
		return nil
	}
	return fmt.Errorf("hub: %s: %w", msg, axial.ErrInvalidInput)
}

// Corners returns the cross-section corners in the (axial, radial) plane and
// the fillet radius of each corner.
func (p Parameters) Corners() ([]r2.Vec, []float64, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	L, R := p.Length, p.Radius
	hf := R - p.FrontLength*math.Tan(p.FrontAngle)
	hb := R - p.BackLength*math.Tan(p.BackAngle)
	// Largest fillets the end discs can hold.
	rf := hf / math.Tan((math.Pi/2-p.FrontAngle)/2) * 0.9999
	rb := hb / math.Tan((math.Pi/2-p.BackAngle)/2) * 0.9999
	pts := []r2.Vec{
		{X: 0, Y: 0},
		{X: 0, Y: hf},
		{X: p.FrontLength, Y: R},
		{X: L - p.BackLength, Y: R},
		{X: L, Y: hb},
		{X: L, Y: 0},
	}
	fillets := []float64{0, rf, p.FrontFillet, p.BackFillet, rb, 0}
	return pts, fillets, nil
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
	out, err := b.Vertices()
	if err != nil {
		return nil, fmt.Errorf("hub outline: %v: %w", err, axial.ErrInvalidInput)
	}
	return dedupe(out), nil
}

// Solid revolves the hub cross-section a full turn about +X.
func Solid(k kernel.Builder, p Parameters) (kernel.Shape, error) {
	pts, err := p.Outline()
	if err != nil {
		return nil, err
	}
	f, err := k.PolygonFace(kernel.Planar(pts))
	if err != nil {
		return nil, fmt.Errorf("hub section: %w", err)
	}
	s, err := k.Revolve(f, kernel.XAxis, 2*math.Pi)
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}
	log.WithFields(log.Fields{"kind": p.Kind, "vertices": len(pts)}).Debug("hub built")
	return s, nil
}

// dedupe drops consecutive coincident vertices, as produced by a front or
// back disc of zero height.
func dedupe(pts []r2.Vec) []r2.Vec {
	const tol = 1e-12
	out := make([]r2.Vec, 0, len(pts))
	for i, pt := range pts {
		if i > 0 && d2.EqualWithin(pt, out[len(out)-1], tol) {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && d2.EqualWithin(out[0], out[len(out)-1], tol) {
		out = out[:len(out)-1]
	}
	return out
}
