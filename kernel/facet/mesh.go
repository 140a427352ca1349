package facet

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/d2"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

type faceMesh struct {
	verts []r3.Vec
	tris  [][3]int
}

// Mesh tessellates every face of s.
func (k *Kernel) Mesh(s kernel.Shape) (*kernel.Mesh, error) {
	sh, ok := asShape(s)
	if !ok {
		return nil, errForeign("mesh")
	}
	return meshFaces(sh.faces())
}

func meshFaces(faces []*Face) (*kernel.Mesh, error) {
	m := &kernel.Mesh{}
	for i, f := range faces {
		fm, err := f.mesh()
		if err != nil {
			return nil, fmt.Errorf("mesh face %d: %w", i, err)
		}
		base := len(m.Vertices)
		m.Vertices = append(m.Vertices, fm.verts...)
		for _, t := range fm.tris {
			m.Indices = append(m.Indices, base+t[0], base+t[1], base+t[2])
		}
	}
	return m, nil
}

// mesh returns the face tessellation, computing it on first use.
func (f *Face) mesh() (*faceMesh, error) {
	if f.tess != nil {
		return f.tess, nil
	}
	var (
		fm  *faceMesh
		err error
	)
	switch f.kind {
	case patchFace, revolvedFace, blendFace:
		fm = f.gridMesh()
	case trimmedFace, planarFace:
		fm, err = f.loopMesh()
	default:
		err = errors.New("unknown face kind")
	}
	if err != nil {
		return nil, err
	}
	if f.flip {
		for i, t := range fm.tris {
			fm.tris[i] = [3]int{t[0], t[2], t[1]}
		}
	}
	f.tess = fm
	return fm, nil
}

// gridMesh samples the surface on a regular parameter grid. Patch boundaries
// are taken from the face's edges so that faces sharing an edge share its
// vertices.
func (f *Face) gridMesh() *faceMesh {
	u0, u1, v0, v1 := f.surf.Domain()
	nu, nv := f.nu, f.nv
	verts := make([]r3.Vec, nu*nv)
	at := func(i, j int) int { return j*nu + i }
	for j := 0; j < nv; j++ {
		v := v0 + (v1-v0)*float64(j)/float64(nv-1)
		for i := 0; i < nu; i++ {
			u := u0 + (u1-u0)*float64(i)/float64(nu-1)
			verts[at(i, j)] = f.surf.Evaluate(u, v)
		}
	}
	if f.kind == patchFace && len(f.loop) == 4 {
		// Sides in loop order: v=v0 forward, u=u1 forward, v=v1 backward, u=u0 backward.
		side := func(c coedge, n int, idx func(k int) int) {
			if len(c.e.pts) != n {
				return
			}
			pts := c.points()
			for k := 0; k < n; k++ {
				verts[idx(k)] = pts[k]
			}
		}
		side(f.loop[0], nu, func(k int) int { return at(k, 0) })
		side(f.loop[1], nv, func(k int) int { return at(nu-1, k) })
		side(f.loop[2], nu, func(k int) int { return at(nu-1-k, nv-1) })
		side(f.loop[3], nv, func(k int) int { return at(0, nv-1-k) })
	}
	tris := make([][3]int, 0, 2*(nu-1)*(nv-1))
	for j := 0; j < nv-1; j++ {
		for i := 0; i < nu-1; i++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			if !degenerateTri(verts[a], verts[b], verts[c]) {
				tris = append(tris, [3]int{a, b, c})
			}
			if !degenerateTri(verts[a], verts[c], verts[d]) {
				tris = append(tris, [3]int{a, c, d})
			}
		}
	}
	return &faceMesh{verts: verts, tris: tris}
}

func degenerateTri(a, b, c r3.Vec) bool {
	return r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) < 1e-18
}

// loopMesh triangulates the face boundary in the parameter space of its
// surface. Vertices are the boundary points themselves.
func (f *Face) loopMesh() (*faceMesh, error) {
	pr, ok := f.surf.(projector)
	if !ok {
		return nil, errors.New("surface cannot be trimmed")
	}
	verts := f.loopPoints()
	if len(verts) < 3 {
		return nil, fmt.Errorf("boundary has %d points: %w", len(verts), axial.ErrConstruction)
	}
	uv := projectLoop(pr, verts)
	tris, err := d2.Triangulate(uv)
	if err != nil {
		return nil, fmt.Errorf("triangulate boundary: %v: %w", err, axial.ErrConstruction)
	}
	return &faceMesh{verts: verts, tris: tris}, nil
}

// loopPoints returns the loop's polyline without repeated joints.
func (f *Face) loopPoints() []r3.Vec {
	var pts []r3.Vec
	for _, c := range f.loop {
		p := c.points()
		pts = append(pts, p[:len(p)-1]...)
	}
	return pts
}

// projectLoop maps a closed loop onto parameter space, unwrapping the angle
// of cylinders so the loop stays continuous.
func projectLoop(pr projector, pts []r3.Vec) d2.Set {
	uv := make(d2.Set, len(pts))
	_, cyl := pr.(*cylinder)
	for i, p := range pts {
		uv[i] = pr.project(p)
		if cyl && i > 0 {
			for uv[i].X-uv[i-1].X > math.Pi {
				uv[i].X -= 2 * math.Pi
			}
			for uv[i].X-uv[i-1].X < -math.Pi {
				uv[i].X += 2 * math.Pi
			}
		}
	}
	return uv
}

// loopArea returns the signed area of the face loop in parameter space.
func (f *Face) loopArea() (float64, error) {
	pr, ok := f.surf.(projector)
	if !ok {
		return 0, errors.New("surface cannot be trimmed")
	}
	return projectLoop(pr, f.loopPoints()).Area(), nil
}
