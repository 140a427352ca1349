// Package facet is a pure Go reference implementation of the kernel contract.
//
// Surfaces are exact (B-splines, cylinders, planes, surfaces of revolution)
// while edges are polylines sampled from them. This is sufficient to fit
// blade patches, trim caps, sew shells, track edges through fusion and
// tessellate the result, but facet is not a general CAD kernel: fusion
// merges coincident topology and keeps overlapping volumes instead of
// computing intersection curves.
package facet

import (
	"fmt"
	"math"

	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/d3"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ kernel.Kernel = (*Kernel)(nil)

// Kernel is the facet geometry kernel. The zero value is not usable,
// use New.
type Kernel struct {
	// RevolveSegments is the number of angular segments of a full turn.
	RevolveSegments int
	// SurfaceSamples is the tessellation density of surfaces that carry
	// no sampling of their own.
	SurfaceSamples int
	// Workers bounds the goroutines of parallel fusion. Zero means GOMAXPROCS.
	Workers int
	// VertexTol is the distance under which edge endpoints are the same vertex.
	VertexTol float64
}

// New returns a Kernel with default settings.
func New() *Kernel {
	return &Kernel{
		RevolveSegments: 96,
		SurfaceSamples:  24,
		VertexTol:       1e-7,
	}
}

func errForeign(op string) error {
	return fmt.Errorf("%s: handle not created by facet kernel: %w", op, axial.ErrInvalidInput)
}

// Cylinder returns the cylinder of radius about axis.
func (k *Kernel) Cylinder(axis kernel.Axis, radius float64) (kernel.Surface, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("cylinder radius %g: %w", radius, axial.ErrInvalidInput)
	}
	if r3.Norm(axis.Dir) == 0 {
		return nil, fmt.Errorf("cylinder axis has zero direction: %w", axial.ErrInvalidInput)
	}
	return newCylinder(axis, radius), nil
}

type densitySurface interface {
	density() (nu, nv int)
}

// SurfaceFace bounds s by its parameter domain. The four boundary edges are
// sampled at the tessellation density; edges shorter than tol are degenerate.
func (k *Kernel) SurfaceFace(s kernel.Surface, tol float64) (kernel.Face, error) {
	u0, u1, v0, v1 := s.Domain()
	for _, x := range [4]float64{u0, u1, v0, v1} {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("surface face: unbounded surface domain: %w", axial.ErrInvalidInput)
		}
	}
	nu, nv := k.SurfaceSamples, k.SurfaceSamples
	if ds, ok := s.(densitySurface); ok {
		nu, nv = ds.density()
	}
	nu, nv = max(nu, 2), max(nv, 2)
	iso := func(n int, at func(t float64) r3.Vec) *Edge {
		pts := make([]r3.Vec, n)
		for i := range pts {
			pts[i] = at(float64(i) / float64(n-1))
		}
		e := newEdge(pts, false)
		e.degenerate = e.length() < tol
		return e
	}
	lu := func(t float64) float64 { return u0 + (u1-u0)*t }
	lv := func(t float64) float64 { return v0 + (v1-v0)*t }
	bottom := iso(nu, func(t float64) r3.Vec { return s.Evaluate(lu(t), v0) })
	right := iso(nv, func(t float64) r3.Vec { return s.Evaluate(u1, lv(t)) })
	top := iso(nu, func(t float64) r3.Vec { return s.Evaluate(lu(t), v1) })
	left := iso(nv, func(t float64) r3.Vec { return s.Evaluate(u0, lv(t)) })
	return &Face{
		kind: patchFace,
		surf: s,
		loop: []coedge{{e: bottom}, {e: right}, {e: top, rev: true}, {e: left, rev: true}},
		nu:   nu,
		nv:   nv,
	}, nil
}

// TrimFace bounds the surface s by the closed wire w. The surface must be a
// facet cylinder or plane.
func (k *Kernel) TrimFace(s kernel.Surface, w kernel.Wire) (kernel.Face, error) {
	wr, ok := w.(*Wire)
	if !ok || wr == nil {
		return nil, errForeign("trim face")
	}
	if _, ok := s.(projector); !ok {
		return nil, fmt.Errorf("trim face: surface %T cannot be trimmed: %w", s, axial.ErrInvalidInput)
	}
	loop := make([]coedge, len(wr.loop))
	copy(loop, wr.loop)
	return &Face{kind: trimmedFace, surf: s, loop: loop}, nil
}

// PolygonFace builds a planar face bounded by the closed polygon points.
func (k *Kernel) PolygonFace(points []r3.Vec) (kernel.Face, error) {
	pts := points
	if len(pts) > 1 && d3.EqualWithin(pts[0], pts[len(pts)-1], k.VertexTol) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon face: %d vertices: %w", len(pts), axial.ErrInvalidInput)
	}
	// Newell normal.
	var n r3.Vec
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	if r3.Norm(n) < 1e-14 {
		return nil, fmt.Errorf("polygon face: zero area polygon: %w", axial.ErrInvalidInput)
	}
	n = r3.Unit(n)
	e1 := r3.Sub(pts[1], pts[0])
	e1 = r3.Unit(r3.Sub(e1, r3.Scale(r3.Dot(e1, n), n)))
	pl := &plane{origin: pts[0], e1: e1, e2: r3.Cross(n, e1)}
	loop := make([]coedge, len(pts))
	for i := range pts {
		loop[i] = coedge{e: newEdge([]r3.Vec{pts[i], pts[(i+1)%len(pts)]}, false)}
	}
	return &Face{kind: planarFace, surf: pl, loop: loop}, nil
}

// MakeWire chains edges end to end into a closed wire, reversing edges
// as needed.
func (k *Kernel) MakeWire(edges []kernel.Edge) (kernel.Wire, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("make wire: no edges: %w", axial.ErrConstruction)
	}
	es := make([]*Edge, len(edges))
	for i, e := range edges {
		ee, ok := asEdge(e)
		if !ok {
			return nil, errForeign("make wire")
		}
		es[i] = ee
	}
	used := make([]bool, len(es))
	loop := []coedge{{e: es[0]}}
	used[0] = true
	for len(loop) < len(es) {
		end := loop[len(loop)-1].end()
		found := false
		for i, e := range es {
			if used[i] {
				continue
			}
			switch {
			case d3.EqualWithin(e.first(), end, k.VertexTol):
				loop = append(loop, coedge{e: e})
			case d3.EqualWithin(e.last(), end, k.VertexTol):
				loop = append(loop, coedge{e: e, rev: true})
			default:
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("make wire: edge chain broken after %d of %d edges: %w", len(loop), len(es), axial.ErrConstruction)
		}
	}
	if !d3.EqualWithin(loop[len(loop)-1].end(), loop[0].start(), k.VertexTol) {
		return nil, fmt.Errorf("make wire: chain of %d edges is not closed: %w", len(es), axial.ErrConstruction)
	}
	return &Wire{loop: loop}, nil
}

// MakeSolid builds a solid from a closed shell, oriented outwards.
func (k *Kernel) MakeSolid(sh kernel.Shell) (kernel.Shape, error) {
	s, ok := sh.(*Shell)
	if !ok || s == nil {
		return nil, errForeign("make solid")
	}
	if free := freeEdges(s.faces); free > 0 {
		return nil, fmt.Errorf("make solid: shell has %d free edges: %w", free, axial.ErrConstruction)
	}
	shape := &Shape{solids: []*solid{{shells: []*Shell{s}}}}
	if err := orient(shape.solids[0]); err != nil {
		return nil, fmt.Errorf("make solid: %w", err)
	}
	return shape, nil
}

// freeEdges counts non-degenerate edges not used exactly twice.
func freeEdges(faces []*Face) int {
	uses := make(map[*Edge]int)
	for _, f := range faces {
		for _, e := range f.edges() {
			uses[e]++
		}
	}
	var free int
	for _, n := range uses {
		if n != 2 {
			free++
		}
	}
	return free
}

// Revolve sweeps the planar face f a full turn about axis. Profile segments
// lying on the axis produce no face.
func (k *Kernel) Revolve(f kernel.Face, axis kernel.Axis, angle float64) (kernel.Shape, error) {
	pf, ok := asFace(f)
	if !ok {
		return nil, errForeign("revolve")
	}
	if pf.kind != planarFace {
		return nil, fmt.Errorf("revolve: face must be planar: %w", axial.ErrInvalidInput)
	}
	if math.Abs(angle-2*math.Pi) > 1e-9 {
		return nil, fmt.Errorf("revolve: only full turns supported, got %g: %w", angle, axial.ErrInvalidInput)
	}
	if r3.Norm(axis.Dir) == 0 {
		return nil, fmt.Errorf("revolve: zero axis: %w", axial.ErrInvalidInput)
	}
	dir := r3.Unit(axis.Dir)
	nseg := max(k.RevolveSegments, 8)
	prof := pf.loopPoints()
	onAxis := func(p r3.Vec) bool { return axis.RadialDistance(p) < k.VertexTol }
	circles := make([]*Edge, len(prof))
	for i, p := range prof {
		if onAxis(p) {
			continue
		}
		pts := make([]r3.Vec, nseg+1)
		for j := 0; j < nseg; j++ {
			pts[j] = rotateAbout(p, axis.Origin, dir, angle*float64(j)/float64(nseg))
		}
		pts[nseg] = pts[0]
		circles[i] = newEdge(pts, true)
	}
	var faces []*Face
	for i := range prof {
		j := (i + 1) % len(prof)
		a, b := prof[i], prof[j]
		if onAxis(a) && onAxis(b) {
			continue
		}
		var loop []coedge
		if circles[i] != nil {
			loop = append(loop, coedge{e: circles[i]})
		}
		if circles[j] != nil {
			loop = append(loop, coedge{e: circles[j], rev: true})
		}
		faces = append(faces, &Face{
			kind: revolvedFace,
			surf: &revolved{origin: axis.Origin, dir: dir, a: a, b: b, angle: angle},
			loop: loop,
			nu:   nseg + 1,
			nv:   2,
		})
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("revolve: profile lies on the axis: %w", axial.ErrConstruction)
	}
	s := &Shape{solids: []*solid{{shells: []*Shell{{faces: faces}}}}}
	if err := orient(s.solids[0]); err != nil {
		return nil, fmt.Errorf("revolve: %w", err)
	}
	return s, nil
}

// Edges returns the unique edges of s.
func (k *Kernel) Edges(s kernel.Shape) []kernel.Edge {
	sh, ok := asShape(s)
	if !ok {
		return nil
	}
	return toKernelEdges(sh.edges())
}

// FaceEdges returns the non-degenerate boundary edges of f.
func (k *Kernel) FaceEdges(f kernel.Face) []kernel.Edge {
	ff, ok := asFace(f)
	if !ok {
		return nil
	}
	return toKernelEdges(ff.edges())
}

// Faces returns the faces of s.
func (k *Kernel) Faces(s kernel.Shape) []kernel.Face {
	sh, ok := asShape(s)
	if !ok {
		return nil
	}
	fs := sh.faces()
	out := make([]kernel.Face, len(fs))
	for i := range fs {
		out[i] = fs[i]
	}
	return out
}

// Solids returns each solid of s as its own shape.
func (k *Kernel) Solids(s kernel.Shape) []kernel.Shape {
	sh, ok := asShape(s)
	if !ok {
		return nil
	}
	out := make([]kernel.Shape, len(sh.solids))
	for i, so := range sh.solids {
		out[i] = &Shape{solids: []*solid{so}}
	}
	return out
}

// Translate returns a copy of s moved by v.
func (k *Kernel) Translate(s kernel.Shape, v r3.Vec) kernel.Shape {
	sh, ok := asShape(s)
	if !ok {
		panic("facet: translate foreign shape")
	}
	return sh.transformed(d3.Translation(v))
}

// Rotate returns a copy of s rotated by angle radians about axis.
func (k *Kernel) Rotate(s kernel.Shape, axis kernel.Axis, angle float64) kernel.Shape {
	sh, ok := asShape(s)
	if !ok {
		panic("facet: rotate foreign shape")
	}
	return sh.transformed(d3.Rotation(axis.Origin, axis.Dir, angle))
}

func toKernelEdges(es []*Edge) []kernel.Edge {
	out := make([]kernel.Edge, len(es))
	for i := range es {
		out[i] = es[i]
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
