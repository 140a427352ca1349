package rotor

import (
	"fmt"
	"math"

	"github.com/soypat/axial"
	"github.com/soypat/axial/blade"
	"github.com/soypat/axial/hub"
	"github.com/soypat/axial/shroud"
	"gonum.org/v1/gonum/spatial/r3"
)

// Parameters describe a rotor of Blades blades between a hub and a shroud.
// Blade, hub and shroud dimensions are derived from these and nowhere else.
type Parameters struct {
	// Length is the total axial length, equal to the hub's.
	Length float64
	Blades int

	Kind           axial.ProfileKind
	CamberPosition float64
	Thickness      float64
	LeadAngle      blade.AngleFunc
	CamberAngle    blade.AngleFunc
	// MaxRadius is the blade tip radius and the shroud's inner radius.
	MaxRadius float64
	// Clearance is the total axial gap between the blades and the hub
	// cones, split evenly front and back.
	Clearance float64

	// Hub's Length is ignored and taken from Length.
	Hub hub.Parameters

	ShroudThickness float64
	// Slant is the shroud end slant angle in radians.
	Slant           float64
	ShroudInFillet  float64
	ShroudOutFillet float64
}

// DefaultParameters returns a four bladed rotor with flat blades.
func DefaultParameters() Parameters {
	h := hub.DefaultParameters()
	s := shroud.DefaultParameters()
	return Parameters{
		Length:          3,
		Blades:          4,
		Kind:            axial.Flat,
		CamberPosition:  0.4,
		Thickness:       0.05,
		LeadAngle:       func(r float64) float64 { return math.Atan(3 * r) },
		CamberAngle:     func(float64) float64 { return 0.2 },
		MaxRadius:       1.5,
		Clearance:       0.12,
		Hub:             h,
		ShroudThickness: 0.05,
		Slant:           1,
		ShroudInFillet:  s.InFillet,
		ShroudOutFillet: s.OutFillet,
	}
}

// BladeLength returns the axial length of the blades.
func (p Parameters) BladeLength() float64 {
	return p.Length - p.Hub.FrontLength - p.Hub.BackLength - p.Clearance
}

// Validate checks the rotor level constraints. Hub, shroud and blade
// parameters are further validated by their builders.
func (p Parameters) Validate() error {
	var msg string
	switch {
	case p.Blades < 1:
		msg = fmt.Sprintf("%d blades", p.Blades)
	case !(p.Clearance >= 0):
		msg = fmt.Sprintf("clearance %g must not be negative", p.Clearance)
	case !(p.BladeLength() > 0):
		msg = fmt.Sprintf("no room for blades: length %g, hub cones %g and %g, clearance %g",
			p.Length, p.Hub.FrontLength, p.Hub.BackLength, p.Clearance)
	case !(p.MaxRadius > p.Hub.Radius):
		msg = fmt.Sprintf("blade tip radius %g must exceed hub radius %g", p.MaxRadius, p.Hub.Radius)
	case p.LeadAngle == nil || p.CamberAngle == nil:
		msg = "nil angle function"
	default:
		return nil
	}
	return fmt.Errorf("rotor: %s: %w", msg, axial.ErrInvalidInput)
}

// BladeParameters returns the parameters of a single blade built about +X
// from the hub surface to the tip radius.
func (p Parameters) BladeParameters() blade.Parameters {
	return blade.Parameters{
		Kind:           p.Kind,
		Length:         p.BladeLength(),
		Thickness:      p.Thickness,
		CamberPosition: p.CamberPosition,
		MinRadius:      p.Hub.Radius,
		MaxRadius:      p.MaxRadius,
		Axis:           r3.Vec{X: 1},
		LeadAngle:      p.LeadAngle,
		CamberAngle:    p.CamberAngle,
	}
}

// HubParameters returns the hub spanning the rotor length.
func (p Parameters) HubParameters() hub.Parameters {
	h := p.Hub
	h.Length = p.Length
	return h
}

// ShroudParameters returns the shroud spanning the hub's cylindrical part.
func (p Parameters) ShroudParameters() shroud.Parameters {
	facets := p.Hub.Facets
	if facets < 1 {
		facets = shroud.DefaultParameters().Facets
	}
	return shroud.Parameters{
		Length:    p.Length - p.Hub.FrontLength - p.Hub.BackLength,
		Radius:    p.MaxRadius,
		Thickness: p.ShroudThickness,
		Slant:     p.Slant,
		InFillet:  p.ShroudInFillet,
		OutFillet: p.ShroudOutFillet,
		Facets:    facets,
	}
}
