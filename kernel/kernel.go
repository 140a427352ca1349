// Package kernel defines the geometry kernel contract the rotor pipeline is
// built on: curve and surface fitting, face and solid construction, boolean
// fusion, fillets, shape repair and tessellation.
//
// Shapes, faces, wires and edges are opaque handles created by a Kernel
// implementation; passing a handle created by one Kernel to another is an
// error.
package kernel

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a parametric curve over [t0, t1].
type Curve interface {
	Evaluate(t float64) r3.Vec
	Domain() (t0, t1 float64)
}

// Surface is a parametric surface over [u0, u1]x[v0, v1].
type Surface interface {
	Evaluate(u, v float64) r3.Vec
	Domain() (u0, u1, v0, v1 float64)
}

// Edge is a bounded curve in a shape's topology.
type Edge interface {
	// Vertices returns the edge's end vertices. A closed edge
	// has a single vertex.
	Vertices() []r3.Vec
	// Points returns a polyline approximation of the edge from its first
	// vertex to its last.
	Points() []r3.Vec
}

// Wire is an ordered loop of connected edges.
type Wire interface {
	Edges() []Edge
}

// Face is a bounded portion of a surface.
type Face interface {
	Surface() Surface
}

// Shell is a set of faces sewn along shared edges.
type Shell interface {
	Faces() []Face
}

// Shape is a solid or a compound of solids.
type Shape interface {
	BoundingBox() r3.Box
}

// Method selects how a fit treats its input points.
type Method int

const (
	// Approximate fits a least-squares spline within a tolerance.
	Approximate Method = iota
	// Interpolate passes exactly through every point.
	Interpolate
)

func (m Method) String() string {
	switch m {
	case Approximate:
		return "approximate"
	case Interpolate:
		return "interpolate"
	}
	return "unknown"
}

// Continuity is a parametric smoothness class.
type Continuity int

const (
	C0 Continuity = iota
	C1
	C2
	C3
)

// FitOptions configures curve and surface fitting.
type FitOptions struct {
	Method Method
	// DegMin and DegMax bound the spline degree searched by Approximate.
	DegMin, DegMax int
	Continuity     Continuity
	// Tolerance is the largest allowed distance from a fitted point to its sample.
	Tolerance float64
	// Periodic requests a closed, periodic interpolating curve.
	// Only valid for FitCurve with Interpolate.
	Periodic bool
}

// SewOptions configures sewing with tolerance escalation: the tolerance
// starts at Tolerance and doubles after every failed attempt, at most
// MaxTries attempts.
type SewOptions struct {
	Tolerance float64
	MaxTries  int
}

// FuseOptions configures boolean fusion.
type FuseOptions struct {
	Fuzzy    float64
	Parallel bool
	Simplify bool
}

// FuseResult is the outcome of a fusion.
type FuseResult struct {
	Shape Shape
	// Survivors are the tracked edges present in Shape, possibly renamed.
	// Merged edges appear once.
	Survivors []Edge
}

// Fitter fits splines to sampled points.
type Fitter interface {
	// FitCurve fits a curve through the ordered points.
	FitCurve(points []r3.Vec, opts FitOptions) (Curve, error)
	// FitSurface fits a surface to a grid indexed [v][u].
	FitSurface(grid [][]r3.Vec, opts FitOptions) (Surface, error)
}

// Builder constructs faces, shells and solids.
type Builder interface {
	// Cylinder returns the cylindrical surface of radius about axis.
	Cylinder(axis Axis, radius float64) (Surface, error)
	// SurfaceFace bounds a face by the natural limits of its surface.
	SurfaceFace(s Surface, tol float64) (Face, error)
	// TrimFace bounds the surface s by the closed wire w.
	TrimFace(s Surface, w Wire) (Face, error)
	// PolygonFace builds a planar face from a closed polygon.
	PolygonFace(points []r3.Vec) (Face, error)
	// MakeWire chains edges into a closed wire.
	MakeWire(edges []Edge) (Wire, error)
	// Sew sews faces into a closed shell.
	Sew(faces []Face, opts SewOptions) (Shell, error)
	// MakeSolid builds a solid from a closed shell.
	MakeSolid(sh Shell) (Shape, error)
	// Revolve sweeps a planar face by angle radians about axis.
	Revolve(f Face, axis Axis, angle float64) (Shape, error)
}

// Explorer lists the topology of shapes and faces.
type Explorer interface {
	Edges(s Shape) []Edge
	FaceEdges(f Face) []Edge
	Faces(s Shape) []Face
	Solids(s Shape) []Shape
}

// Transformer places shapes. Results are independent copies.
type Transformer interface {
	Translate(s Shape, v r3.Vec) Shape
	Rotate(s Shape, axis Axis, angle float64) Shape
}

// Fuser performs boolean union.
type Fuser interface {
	// Fuse fuses tools into base and reports which of the tracked edges
	// survived into the result.
	Fuse(base Shape, tools []Shape, opts FuseOptions, track []Edge) (FuseResult, error)
}

// Filleter rounds edges.
type Filleter interface {
	// Fillet rounds the edges of s with radius. It returns an error wrapping
	// axial.ErrFilletInfeasible for radii the geometry cannot hold.
	Fillet(s Shape, edges []Edge, radius float64) (Shape, error)
}

// Healer repairs topology defects.
type Healer interface {
	FixFace(f Face, precision float64) (Face, error)
	FixSolid(s Shape, precision float64) (Shape, error)
}

// Mesher tessellates shapes for export and preview.
type Mesher interface {
	Mesh(s Shape) (*Mesh, error)
}

// Kernel is the full geometry kernel contract.
type Kernel interface {
	Fitter
	Builder
	Explorer
	Transformer
	Fuser
	Filleter
	Healer
	Mesher
}

// Mesh is a triangle mesh with shared vertices. Indices has length
// a multiple of 3, each triple a counter-clockwise triangle seen from outside.
type Mesh struct {
	Vertices []r3.Vec
	Indices  []int
}

// Triangles returns the number of triangles in m.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Triangle returns the i'th triangle's vertices.
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	return [3]r3.Vec{
		m.Vertices[m.Indices[3*i]],
		m.Vertices[m.Indices[3*i+1]],
		m.Vertices[m.Indices[3*i+2]],
	}
}

// Volume returns the signed volume enclosed by m.
func (m *Mesh) Volume() float64 {
	var v float64
	for i := 0; i < m.Triangles(); i++ {
		t := m.Triangle(i)
		v += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return v / 6
}

// Planar lifts 2-D points onto the XZ half-plane used for revolved
// profiles: x stays x and the profile's y becomes the radial Z coordinate.
func Planar(pts []r2.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = r3.Vec{X: p.X, Z: p.Y}
	}
	return out
}
