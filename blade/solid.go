package blade

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid samples the blade at every (u, v) pair, indexed [v][u].
func (b *Blade) Grid(u, v []float64) ([][]r3.Vec, error) {
	grid := make([][]r3.Vec, len(v))
	for j, vv := range v {
		grid[j] = make([]r3.Vec, len(u))
		for i, uu := range u {
			p, err := b.Point(uu, vv)
			if err != nil {
				return nil, err
			}
			grid[j][i] = p
		}
	}
	return grid, nil
}

// Patches returns one fitted face per seam interval.
func (b *Blade) Patches(k kernel.Kernel, s Sampling) ([]kernel.Face, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	u, err := s.UValues()
	if err != nil {
		return nil, err
	}
	ivs, err := SeamIntervals(s.Seams)
	if err != nil {
		return nil, err
	}
	v := s.VEase.Sample(s.VPoints)
	grid, err := b.Grid(u, v)
	if err != nil {
		return nil, err
	}
	opts := s.fitOptions()
	faces := make([]kernel.Face, len(ivs))
	for p, idx := range patchIndices(u, ivs) {
		if len(idx) < 2 {
			return nil, fmt.Errorf("patch %d over %+v has %d chordwise samples: %w", p, ivs[p], len(idx), axial.ErrConstruction)
		}
		pg := make([][]r3.Vec, len(v))
		for j := range v {
			pg[j] = make([]r3.Vec, len(idx))
			for i, ui := range idx {
				pg[j][i] = grid[j][ui]
			}
		}
		surf, err := k.FitSurface(pg, opts)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", p, err)
		}
		f, err := k.SurfaceFace(surf, axial.MakeFaceTol)
		if err != nil {
			return nil, fmt.Errorf("patch %d face: %w", p, err)
		}
		faces[p] = f
		log.WithFields(log.Fields{
			"patch": p, "u": fmt.Sprintf("[%g,%g]", ivs[p].Lo, ivs[p].Hi), "samples": fmt.Sprintf("%dx%d", len(idx), len(v)),
		}).Debug("blade patch")
	}
	return faces, nil
}

// Cap returns the cylindrical face closing the patches at radius. It is
// bounded by the patch edges lying on that radius.
func (b *Blade) Cap(k kernel.Kernel, patches []kernel.Face, radius float64) (kernel.Face, error) {
	var edges []kernel.Edge
	for _, f := range patches {
		edges = append(edges, k.FaceEdges(f)...)
	}
	capEdges := kernel.EdgesAtRadius(edges, kernel.XAxis, radius, axial.BladeCapRadiusTol)
	if len(capEdges) == 0 {
		return nil, fmt.Errorf("no blade edges at radius %g: %w", radius, axial.ErrConstruction)
	}
	w, err := k.MakeWire(capEdges)
	if err != nil {
		return nil, fmt.Errorf("cap wire at radius %g: %w", radius, err)
	}
	cyl, err := k.Cylinder(kernel.XAxis, radius)
	if err != nil {
		return nil, fmt.Errorf("cap surface at radius %g: %w", radius, err)
	}
	f, err := k.TrimFace(cyl, w)
	if err != nil {
		return nil, fmt.Errorf("cap at radius %g: %w", radius, err)
	}
	f, err = k.FixFace(f, axial.FixFacePrecision)
	if err != nil {
		return nil, fmt.Errorf("cap at radius %g: %w", radius, err)
	}
	return f, nil
}

// Solid returns the closed blade: its patches and both caps sewn into a
// solid, placed on the blade axis.
func (b *Blade) Solid(k kernel.Kernel, s Sampling) (kernel.Shape, error) {
	patches, err := b.Patches(k, s)
	if err != nil {
		return nil, err
	}
	bottom, err := b.Cap(k, patches, b.p.MinRadius)
	if err != nil {
		return nil, err
	}
	top, err := b.Cap(k, patches, b.p.MaxRadius)
	if err != nil {
		return nil, err
	}
	faces := append(append([]kernel.Face(nil), patches...), bottom, top)
	shell, err := k.Sew(faces, kernel.SewOptions{Tolerance: axial.SewStartTol, MaxTries: axial.SewMaxTries})
	if err != nil {
		return nil, fmt.Errorf("blade shell: %w", err)
	}
	solid, err := k.MakeSolid(shell)
	if err != nil {
		return nil, fmt.Errorf("blade solid: %w", err)
	}
	log.WithFields(log.Fields{"patches": len(patches), "faces": len(faces)}).Info("blade built")
	return b.place(k, solid), nil
}

// place rotates +X onto the blade axis and moves the origin.
func (b *Blade) place(t kernel.Transformer, s kernel.Shape) kernel.Shape {
	x := r3.Vec{X: 1}
	a := r3.Unit(b.p.Axis)
	c := r3.Cross(x, a)
	switch {
	case r3.Norm(c) > 1e-12:
		angle := math.Acos(axial.Clamp(r3.Dot(x, a), -1, 1))
		s = t.Rotate(s, kernel.Axis{Dir: r3.Unit(c)}, angle)
	case a.X < 0:
		s = t.Rotate(s, kernel.Axis{Dir: r3.Vec{Z: 1}}, math.Pi)
	}
	if b.p.Origin != (r3.Vec{}) {
		s = t.Translate(s, b.p.Origin)
	}
	return s
}

// SectionCurve fits a closed periodic curve through n samples of the blade
// section at spanwise coordinate v.
func (b *Blade) SectionCurve(k kernel.Fitter, v float64, n int) (kernel.Curve, error) {
	if n < 4 {
		return nil, fmt.Errorf("section curve needs at least 4 samples, got %d: %w", n, axial.ErrInvalidInput)
	}
	pts := make([]r3.Vec, n)
	for i := range pts {
		p, err := b.Point(float64(i)/float64(n), v)
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return k.FitCurve(pts, kernel.FitOptions{Method: kernel.Interpolate, Periodic: true})
}
