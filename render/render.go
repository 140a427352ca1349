// Package render writes tessellated rotor geometry to STL files, PNG
// previews and profile section plots.
package render

import (
	"io"

	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer is a source of triangles. ReadTriangles returns io.EOF once every
// triangle has been read.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// Triangle3 is a triangle, counter-clockwise seen from outside.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the triangle's unit normal.
func (t Triangle3) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Degenerate reports whether two vertices of t are within tol of each other.
func (t Triangle3) Degenerate(tol float64) bool {
	return r3.Norm(r3.Sub(t.V[0], t.V[1])) <= tol ||
		r3.Norm(r3.Sub(t.V[1], t.V[2])) <= tol ||
		r3.Norm(r3.Sub(t.V[2], t.V[0])) <= tol
}

type meshRenderer struct {
	m    *kernel.Mesh
	next int
}

// NewMeshRenderer returns a Renderer over the triangles of m.
func NewMeshRenderer(m *kernel.Mesh) Renderer {
	return &meshRenderer{m: m}
}

func (r *meshRenderer) ReadTriangles(t []Triangle3) (int, error) {
	total := r.m.Triangles()
	if r.next >= total {
		return 0, io.EOF
	}
	n := 0
	for ; n < len(t) && r.next < total; n++ {
		t[n] = Triangle3{V: r.m.Triangle(r.next)}
		r.next++
	}
	return n, nil
}
