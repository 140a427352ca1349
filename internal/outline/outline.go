// Package outline builds closed 2-D outlines out of straight segments with
// optionally filleted vertices. Hub and shroud cross-sections are described
// this way before being revolved.
package outline

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/axial/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

const tolerance = 1e-9

// ErrRadiusTooLarge is returned when a vertex fillet's tangent points fall
// beyond one of its adjacent segments.
var ErrRadiusTooLarge = errors.New("fillet radius too large for vertex")

// Builder stores a list of outline vertices.
type Builder struct {
	closed bool
	vlist  []vertex
}

type vertex struct {
	relative bool
	p        r2.Vec
	facets   int     // segments of the fillet arc
	radius   float64 // fillet radius (0 == sharp)
}

// Vertex is a handle to the last added vertex of a Builder.
type Vertex struct {
	b *Builder
	i int
}

// New returns an empty outline builder.
func New() *Builder {
	return &Builder{}
}

// Add appends the (x, y) vertex.
func (b *Builder) Add(x, y float64) Vertex {
	return b.AddVec(r2.Vec{X: x, Y: y})
}

// AddVec appends a vertex.
func (b *Builder) AddVec(p r2.Vec) Vertex {
	b.vlist = append(b.vlist, vertex{p: p})
	return Vertex{b: b, i: len(b.vlist) - 1}
}

// Rel positions the vertex relative to the prior vertex.
func (v Vertex) Rel() Vertex {
	v.b.vlist[v.i].relative = true
	return v
}

// Smooth marks the vertex to be filleted with radius using facets arc
// segments. A zero radius or zero facets leaves the vertex sharp.
func (v Vertex) Smooth(radius float64, facets int) Vertex {
	if radius > 0 && facets > 0 {
		v.b.vlist[v.i].radius = radius
		v.b.vlist[v.i].facets = facets
	}
	return v
}

// Close marks the outline as closed: the last vertex connects to the first.
func (b *Builder) Close() { b.closed = true }

// Closed reports whether the outline is closed.
func (b *Builder) Closed() bool { return b.closed }

// Len returns the number of vertices added so far.
func (b *Builder) Len() int { return len(b.vlist) }

// Vertices returns the outline vertices with every fillet expanded into its
// arc. The builder is left unmodified.
func (b *Builder) Vertices() ([]r2.Vec, error) {
	if len(b.vlist) < 2 {
		return nil, errors.New("outline needs at least two vertices")
	}
	vl := make([]vertex, len(b.vlist))
	copy(vl, b.vlist)
	if err := relToAbs(vl); err != nil {
		return nil, err
	}
	out := make([]r2.Vec, 0, len(vl))
	n := len(vl)
	for i, v := range vl {
		if v.radius == 0 {
			out = append(out, v.p)
			continue
		}
		if !b.closed && (i == 0 || i == n-1) {
			return nil, fmt.Errorf("cannot fillet endpoint %d of an open outline", i)
		}
		prev := vl[(i-1+n)%n].p
		next := vl[(i+1)%n].p
		arc, err := smoothVertex(prev, v.p, next, v.radius, v.facets)
		if err != nil {
			return nil, fmt.Errorf("vertex %d at %v: %w", i, v.p, err)
		}
		out = append(out, arc...)
	}
	return out, nil
}

func relToAbs(vl []vertex) error {
	for i := range vl {
		if !vl[i].relative {
			continue
		}
		if i == 0 {
			return errors.New("first vertex cannot be relative")
		}
		vl[i].p = r2.Add(vl[i].p, vl[i-1].p)
		vl[i].relative = false
	}
	return nil
}

// smoothVertex replaces the corner at v by a circular arc of the given radius
// tangent to both adjacent segments.
func smoothVertex(prev, v, next r2.Vec, radius float64, facets int) ([]r2.Vec, error) {
	lp := r2.Norm(r2.Sub(prev, v))
	ln := r2.Norm(r2.Sub(next, v))
	if lp < tolerance || ln < tolerance {
		return nil, errors.New("degenerate segment at filleted vertex")
	}
	v0 := r2.Scale(1/lp, r2.Sub(prev, v))
	v1 := r2.Scale(1/ln, r2.Sub(next, v))
	theta := math.Acos(math.Max(-1, math.Min(1, r2.Dot(v0, v1))))
	if theta < tolerance || math.Pi-theta < tolerance {
		// Straight or folded-back corner, nothing to round.
		return []r2.Vec{v}, nil
	}
	// distance from vertex to circle tangent
	d1 := radius / math.Tan(theta/2)
	if d1 > lp || d1 > ln {
		return nil, ErrRadiusTooLarge
	}
	p0 := r2.Add(v, r2.Scale(d1, v0))
	// distance from vertex to circle center
	dc := radius / math.Sin(theta/2)
	c := r2.Add(v, r2.Scale(dc, r2.Unit(r2.Add(v0, v1))))
	dtheta := sign(r2.Cross(v1, v0)) * (math.Pi - theta) / float64(facets)
	rv := r2.Sub(p0, c)
	points := make([]r2.Vec, facets+1)
	for j := range points {
		points[j] = r2.Add(c, rv)
		rv = d2.Rotate(rv, dtheta)
	}
	return points, nil
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	if x > 0 {
		return 1
	}
	return 0
}
