package facet

import (
	"sync/atomic"

	"github.com/soypat/axial/internal/d3"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

var edgeSeq uint64

// Edge is a polyline edge. Edges are shared by pointer between the faces
// they bound.
type Edge struct {
	id         uint64
	pts        []r3.Vec
	closed     bool
	degenerate bool
}

func newEdge(pts []r3.Vec, closed bool) *Edge {
	e := &Edge{id: atomic.AddUint64(&edgeSeq, 1), pts: pts, closed: closed}
	e.degenerate = e.length() < 1e-12
	return e
}

// ID returns the edge's unique identifier.
func (e *Edge) ID() uint64 { return e.id }

// Vertices returns the edge's end vertices, a single one for closed edges.
func (e *Edge) Vertices() []r3.Vec {
	if e.closed {
		return []r3.Vec{e.pts[0]}
	}
	return []r3.Vec{e.pts[0], e.pts[len(e.pts)-1]}
}

// Points returns a copy of the edge polyline.
func (e *Edge) Points() []r3.Vec {
	out := make([]r3.Vec, len(e.pts))
	copy(out, e.pts)
	return out
}

func (e *Edge) first() r3.Vec { return e.pts[0] }
func (e *Edge) last() r3.Vec  { return e.pts[len(e.pts)-1] }

func (e *Edge) length() float64 {
	var l float64
	for i := 1; i < len(e.pts); i++ {
		l += r3.Norm(r3.Sub(e.pts[i], e.pts[i-1]))
	}
	return l
}

func (e *Edge) transformed(t d3.Transform) *Edge {
	pts := make([]r3.Vec, len(e.pts))
	for i := range pts {
		pts[i] = t.Transform(e.pts[i])
	}
	return &Edge{id: atomic.AddUint64(&edgeSeq, 1), pts: pts, closed: e.closed, degenerate: e.degenerate}
}

// coedge is the use of an edge by a face, possibly reversed.
type coedge struct {
	e   *Edge
	rev bool
}

func (c coedge) start() r3.Vec {
	if c.rev {
		return c.e.last()
	}
	return c.e.first()
}

func (c coedge) end() r3.Vec {
	if c.rev {
		return c.e.first()
	}
	return c.e.last()
}

// points returns the edge polyline in the coedge direction.
func (c coedge) points() []r3.Vec {
	pts := c.e.Points()
	if c.rev {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// Wire is a closed chain of coedges.
type Wire struct {
	loop []coedge
}

// Edges returns the wire's edges in chain order.
func (w *Wire) Edges() []kernel.Edge {
	out := make([]kernel.Edge, len(w.loop))
	for i, c := range w.loop {
		out[i] = c.e
	}
	return out
}

type faceKind int

const (
	patchFace faceKind = iota
	trimmedFace
	planarFace
	revolvedFace
	blendFace
)

// Face is a bounded surface. The outward normal is du x dv unless flip is set,
// in which case both the normal and the loop traversal are reversed.
type Face struct {
	kind faceKind
	surf kernel.Surface
	// loop is the outer boundary. Patch faces keep the order
	// v=v0, u=u1, v=v1, u=u0.
	loop []coedge
	flip bool
	// tessellation grid size for parametric faces.
	nu, nv int
	tess   *faceMesh
}

// Surface returns the face's underlying surface.
func (f *Face) Surface() kernel.Surface { return f.surf }

// uses reports the direction in which the face traverses its i'th coedge,
// accounting for flip.
func (f *Face) uses(i int) bool { return f.loop[i].rev != f.flip }

func (f *Face) edges() []*Edge {
	var out []*Edge
	for _, c := range f.loop {
		if !c.e.degenerate {
			out = append(out, c.e)
		}
	}
	return out
}

// reversed returns a copy of f with the opposite orientation.
func (f *Face) reversed() *Face {
	nf := *f
	nf.flip = !f.flip
	nf.tess = nil
	return &nf
}

// Shell is a set of faces sewn together along shared edges.
type Shell struct {
	faces []*Face
}

// Faces returns the faces of the shell.
func (s *Shell) Faces() []kernel.Face {
	out := make([]kernel.Face, len(s.faces))
	for i, f := range s.faces {
		out[i] = f
	}
	return out
}

type solid struct {
	shells []*Shell
}

func (s *solid) faces() []*Face {
	var out []*Face
	for _, sh := range s.shells {
		out = append(out, sh.faces...)
	}
	return out
}

// Shape is a compound of solids. A Shape with one solid is a solid.
type Shape struct {
	solids []*solid
}

func (s *Shape) faces() []*Face {
	var out []*Face
	for _, so := range s.solids {
		out = append(out, so.faces()...)
	}
	return out
}

// edges returns the unique non-degenerate edges of s in order of appearance.
func (s *Shape) edges() []*Edge {
	seen := make(map[*Edge]bool)
	var out []*Edge
	for _, f := range s.faces() {
		for _, e := range f.edges() {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// BoundingBox returns the box enclosing the shape's tessellation.
func (s *Shape) BoundingBox() r3.Box {
	first := true
	var bb d3.Box
	for _, f := range s.faces() {
		m, err := f.mesh()
		if err != nil {
			continue
		}
		for _, v := range m.verts {
			if first {
				bb = d3.Box{Min: v, Max: v}
				first = false
				continue
			}
			bb = bb.Include(v)
		}
	}
	return r3.Box(bb)
}

// allEdges returns the unique edges of s including degenerate ones.
func (s *Shape) allEdges() []*Edge {
	seen := make(map[*Edge]bool)
	var out []*Edge
	for _, f := range s.faces() {
		for _, c := range f.loop {
			if !seen[c.e] {
				seen[c.e] = true
				out = append(out, c.e)
			}
		}
	}
	return out
}

// transformed returns a deep copy of s placed by t. Shared edges stay shared.
func (s *Shape) transformed(t d3.Transform) *Shape {
	out, _ := s.transformedMap(t)
	return out
}

// clone returns a deep copy of s and the mapping from its edges to the copies.
func (s *Shape) clone() (*Shape, map[*Edge]*Edge) {
	return s.transformedMap(d3.Translation(r3.Vec{}))
}

func (s *Shape) transformedMap(t d3.Transform) (*Shape, map[*Edge]*Edge) {
	emap := make(map[*Edge]*Edge)
	mapEdge := func(e *Edge) *Edge {
		if ne, ok := emap[e]; ok {
			return ne
		}
		ne := e.transformed(t)
		emap[e] = ne
		return ne
	}
	out := &Shape{solids: make([]*solid, len(s.solids))}
	for i, so := range s.solids {
		nso := &solid{shells: make([]*Shell, len(so.shells))}
		for j, sh := range so.shells {
			nsh := &Shell{faces: make([]*Face, len(sh.faces))}
			for k, f := range sh.faces {
				nsh.faces[k] = f.transformed(t, mapEdge)
			}
			nso.shells[j] = nsh
		}
		out.solids[i] = nso
	}
	return out, emap
}

func (f *Face) transformed(t d3.Transform, mapEdge func(*Edge) *Edge) *Face {
	nf := &Face{
		kind: f.kind, surf: transformSurface(f.surf, t),
		flip: f.flip, nu: f.nu, nv: f.nv,
		loop: make([]coedge, len(f.loop)),
	}
	for i, c := range f.loop {
		nf.loop[i] = coedge{e: mapEdge(c.e), rev: c.rev}
	}
	if f.tess != nil {
		verts := make([]r3.Vec, len(f.tess.verts))
		for i := range verts {
			verts[i] = t.Transform(f.tess.verts[i])
		}
		nf.tess = &faceMesh{verts: verts, tris: f.tess.tris}
	}
	return nf
}

func asShape(s kernel.Shape) (*Shape, bool) {
	sh, ok := s.(*Shape)
	return sh, ok && sh != nil
}

func asFace(f kernel.Face) (*Face, bool) {
	ff, ok := f.(*Face)
	return ff, ok && ff != nil
}

func asEdge(e kernel.Edge) (*Edge, bool) {
	ee, ok := e.(*Edge)
	return ee, ok && ee != nil
}
