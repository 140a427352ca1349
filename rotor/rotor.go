// Package rotor assembles hub, shroud and blades into a single filleted
// solid.
//
// Assembly is a sequence of typed states, each transition returning the
// next state:
//
//	e, _ := rotor.New(k, params)
//	h, _ := e.AddHub()
//	s, _ := h.AddShroud()
//	b, _ := s.AddBlades(blade.DefaultSampling())
//	a, _ := b.AssembleWithBackoff(0.01, rotor.DefaultBackoff())
package rotor

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/blade"
	"github.com/soypat/axial/hub"
	"github.com/soypat/axial/kernel"
	"github.com/soypat/axial/shroud"
	"gonum.org/v1/gonum/spatial/r3"
)

// FilletError is returned when the blade fillets could not be built.
type FilletError struct {
	Radius float64
	// Edges is the number of fillet candidate edges.
	Edges int
	Err   error
}

func (e *FilletError) Error() string {
	return fmt.Sprintf("fillet of %d edges at radius %g: %v", e.Edges, e.Radius, e.Err)
}

func (e *FilletError) Unwrap() error { return e.Err }

// Assembly is a finished rotor.
type Assembly struct {
	Shape kernel.Shape
	// Candidates are the blade edges on the hub and tip radii that
	// survived fusion.
	Candidates []kernel.Edge
	// Radius is the fillet radius that was applied, zero for none.
	Radius float64
	// Attempts is the number of fillet radii tried.
	Attempts int
}

type state struct {
	k          kernel.Kernel
	p          Parameters
	parts      []kernel.Shape
	candidates []kernel.Edge
}

func (s state) with(parts ...kernel.Shape) state {
	next := s
	next.parts = append(append([]kernel.Shape(nil), s.parts...), parts...)
	next.candidates = append([]kernel.Edge(nil), s.candidates...)
	return next
}

// Empty is a rotor with no parts.
type Empty struct{ s state }

// WithHub is a rotor with its hub.
type WithHub struct{ s state }

// WithShroud is a rotor with hub and shroud.
type WithShroud struct{ s state }

// WithBlades is a rotor with every part, ready to be assembled.
type WithBlades struct{ s state }

// New validates p and returns an empty rotor built with k.
func New(k kernel.Kernel, p Parameters) (Empty, error) {
	if k == nil {
		return Empty{}, fmt.Errorf("rotor: nil kernel: %w", axial.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return Empty{}, err
	}
	return Empty{s: state{k: k, p: p}}, nil
}

// Parameters returns the rotor parameters.
func (e Empty) Parameters() Parameters { return e.s.p }

// AddHub builds the hub.
func (e Empty) AddHub() (WithHub, error) {
	h, err := hub.Solid(e.s.k, e.s.p.HubParameters())
	if err != nil {
		return WithHub{}, fmt.Errorf("rotor: %w", err)
	}
	log.Info("hub added")
	return WithHub{s: e.s.with(h)}, nil
}

// Parts returns the number of parts added so far.
func (h WithHub) Parts() int { return len(h.s.parts) }

// AddShroud builds the shroud over the hub's cylindrical part.
func (h WithHub) AddShroud() (WithShroud, error) {
	k, p := h.s.k, h.s.p
	sh, err := shroud.Solid(k, p.ShroudParameters())
	if err != nil {
		return WithShroud{}, fmt.Errorf("rotor: %w", err)
	}
	sh = k.Translate(sh, r3.Vec{X: p.Hub.FrontLength})
	log.Info("shroud added")
	return WithShroud{s: h.s.with(sh)}, nil
}

// Parts returns the number of parts added so far.
func (s WithShroud) Parts() int { return len(s.s.parts) }

// AddBlades builds one blade with the given sampling and arrays it around
// the axis. Edges of every blade on the hub or tip radius become fillet
// candidates.
func (s WithShroud) AddBlades(sampling blade.Sampling) (WithBlades, error) {
	k, p := s.s.k, s.s.p
	b, err := blade.New(p.BladeParameters())
	if err != nil {
		return WithBlades{}, fmt.Errorf("rotor: %w", err)
	}
	solid, err := b.Solid(k, sampling)
	if err != nil {
		return WithBlades{}, fmt.Errorf("rotor: %w", err)
	}
	solid = k.Translate(solid, r3.Vec{X: p.Hub.FrontLength + p.Clearance/2})
	blades := kernel.RotationArray(k, solid, p.Blades, 2*math.Pi, kernel.XAxis)
	next := s.s.with(blades...)
	for _, bl := range blades {
		edges := k.Edges(bl)
		next.candidates = append(next.candidates, kernel.EdgesAtRadius(edges, kernel.XAxis, p.Hub.Radius, axial.BladeCapRadiusTol)...)
		next.candidates = append(next.candidates, kernel.EdgesAtRadius(edges, kernel.XAxis, p.MaxRadius, axial.BladeCapRadiusTol)...)
	}
	log.WithFields(log.Fields{"blades": len(blades), "candidates": len(next.candidates)}).Info("blades added")
	return WithBlades{s: next}, nil
}

// Parts returns the number of parts added so far.
func (b WithBlades) Parts() int { return len(b.s.parts) }

// Candidates returns the fillet candidate edges.
func (b WithBlades) Candidates() []kernel.Edge {
	return append([]kernel.Edge(nil), b.s.candidates...)
}

// Assemble fuses every part and fillets the surviving candidate edges with
// radius. A zero radius skips the fillets. An infeasible fillet returns a
// *FilletError.
func (b WithBlades) Assemble(radius float64) (*Assembly, error) {
	if !(radius >= 0) {
		return nil, fmt.Errorf("rotor: fillet radius %g: %w", radius, axial.ErrInvalidInput)
	}
	fused, err := b.fuse()
	if err != nil {
		return nil, err
	}
	return b.finish(fused, radius)
}

// Backoff configures fillet retries: the radius is scaled by Factor after
// every infeasible fillet, and dropped once the scale falls below Floor.
type Backoff struct {
	Factor float64
	Floor  float64
}

// DefaultBackoff returns a 10% reduction per attempt down to a fifth of the
// requested radius.
func DefaultBackoff() Backoff { return Backoff{Factor: 0.9, Floor: 0.2} }

// Validate checks 0 < Factor < 1 and 0 < Floor <= 1.
func (bo Backoff) Validate() error {
	if !(bo.Factor > 0 && bo.Factor < 1) {
		return fmt.Errorf("backoff factor %g not in (0,1): %w", bo.Factor, axial.ErrInvalidInput)
	}
	if !(bo.Floor > 0 && bo.Floor <= 1) {
		return fmt.Errorf("backoff floor %g not in (0,1]: %w", bo.Floor, axial.ErrInvalidInput)
	}
	return nil
}

// AssembleWithBackoff fuses every part once and retries the fillets with
// decreasing radius until one succeeds. Errors other than infeasible
// fillets abort.
func (b WithBlades) AssembleWithBackoff(radius float64, bo Backoff) (*Assembly, error) {
	if err := bo.Validate(); err != nil {
		return nil, fmt.Errorf("rotor: %w", err)
	}
	if !(radius >= 0) {
		return nil, fmt.Errorf("rotor: fillet radius %g: %w", radius, axial.ErrInvalidInput)
	}
	fused, err := b.fuse()
	if err != nil {
		return nil, err
	}
	fact := 1.0
	for attempt := 1; ; attempt++ {
		r := fact * radius
		a, err := b.finish(fused, r)
		if err == nil {
			a.Attempts = attempt
			return a, nil
		}
		if !errors.Is(err, axial.ErrFilletInfeasible) || r == 0 {
			return nil, err
		}
		fact *= bo.Factor
		if fact < bo.Floor {
			fact = 0
		}
		log.WithFields(log.Fields{"radius": r, "next": fact * radius}).Warn("fillet infeasible, reducing radius")
	}
}

type fusedRotor struct {
	shape      kernel.Shape
	candidates []kernel.Edge
}

func (b WithBlades) fuse() (fusedRotor, error) {
	k, parts := b.s.k, b.s.parts
	if len(parts) == 0 {
		return fusedRotor{}, fmt.Errorf("rotor: nothing to assemble: %w", axial.ErrInvalidInput)
	}
	opts := kernel.FuseOptions{Fuzzy: axial.FuseTol, Parallel: true, Simplify: true}
	res, err := k.Fuse(parts[0], parts[1:], opts, b.s.candidates)
	if err != nil {
		return fusedRotor{}, fmt.Errorf("rotor fuse: %w", err)
	}
	log.WithFields(log.Fields{
		"parts": len(parts), "candidates": len(b.s.candidates), "survivors": len(res.Survivors),
	}).Info("rotor fused")
	return fusedRotor{shape: res.Shape, candidates: res.Survivors}, nil
}

// finish fillets and repairs a fused rotor.
func (b WithBlades) finish(f fusedRotor, radius float64) (*Assembly, error) {
	k := b.s.k
	shape := f.shape
	if radius > 0 && len(f.candidates) > 0 {
		filleted, err := k.Fillet(shape, f.candidates, radius)
		if err != nil {
			return nil, &FilletError{Radius: radius, Edges: len(f.candidates), Err: err}
		}
		shape = filleted
	}
	if solids := k.Solids(shape); len(solids) != 1 {
		// Sew the compound's faces into a single solid.
		shell, err := k.Sew(k.Faces(shape), kernel.SewOptions{Tolerance: axial.SewStartTol, MaxTries: axial.SewMaxTries})
		if err != nil {
			return nil, fmt.Errorf("rotor: %d solids: %w", len(solids), err)
		}
		if shape, err = k.MakeSolid(shell); err != nil {
			return nil, fmt.Errorf("rotor: %w", err)
		}
	}
	fixed, err := k.FixSolid(shape, axial.FixSolidPrecision)
	if err != nil {
		return nil, fmt.Errorf("rotor repair: %w", err)
	}
	log.WithField("fillet", radius).Info("rotor assembled")
	return &Assembly{
		Shape:      fixed,
		Candidates: append([]kernel.Edge(nil), f.candidates...),
		Radius:     radius,
		Attempts:   1,
	}, nil
}
