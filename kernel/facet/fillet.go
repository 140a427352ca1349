package facet

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/d3"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// supportTol is the distance within which a fillet loop lies on its
// supporting surface.
const supportTol = 1e-3

// Fillet rounds the given edges with a rolling ball of radius r. Edges are
// chained into closed loops, each of which must lie on a surface of
// revolution of another part. A loop is infeasible when r exceeds its
// smallest concave radius or the fillet footprint leaves the supporting face.
func (k *Kernel) Fillet(s kernel.Shape, edges []kernel.Edge, r float64) (kernel.Shape, error) {
	sh, ok := asShape(s)
	if !ok {
		return nil, errForeign("fillet")
	}
	if r <= 0 || math.IsNaN(r) {
		return nil, fmt.Errorf("fillet radius %g: %w", r, axial.ErrInvalidInput)
	}
	if len(edges) == 0 {
		return sh, nil
	}
	owner := make(map[*Edge]int)
	for i, so := range sh.solids {
		for _, f := range so.faces() {
			for _, e := range f.edges() {
				owner[e] = i
			}
		}
	}
	es := make([]*Edge, len(edges))
	for i, e := range edges {
		ee, ok := asEdge(e)
		if !ok {
			return nil, errForeign("fillet")
		}
		if _, ok := owner[ee]; !ok {
			return nil, fmt.Errorf("fillet: edge %d not in shape: %w", ee.id, axial.ErrInvalidInput)
		}
		es[i] = ee
	}
	loops, err := chainLoops(es, supportTol)
	if err != nil {
		return nil, fmt.Errorf("fillet: %w", err)
	}
	blends := make(map[int][]*Face)
	for li, lp := range loops {
		bf, err := k.blendLoop(sh, lp, r)
		if err != nil {
			return nil, fmt.Errorf("fillet loop %d of %d: %w", li+1, len(loops), err)
		}
		o := owner[lp.edges[0]]
		blends[o] = append(blends[o], bf)
	}
	out := &Shape{solids: make([]*solid, len(sh.solids))}
	for i, so := range sh.solids {
		ns := &solid{shells: append([]*Shell(nil), so.shells...)}
		if fs := blends[i]; len(fs) > 0 {
			ns.shells = append(ns.shells, &Shell{faces: fs})
		}
		out.solids[i] = ns
	}
	log.WithFields(log.Fields{"radius": r, "edges": len(es), "loops": len(loops)}).Debug("fillet")
	return out, nil
}

// filletLoop is a closed chain of edges with its polyline, last point
// not repeated.
type filletLoop struct {
	edges []*Edge
	pts   []r3.Vec
}

// chainLoops groups edges into closed loops by matching endpoints.
func chainLoops(es []*Edge, tol float64) ([]filletLoop, error) {
	used := make([]bool, len(es))
	var loops []filletLoop
	for i, e := range es {
		if used[i] {
			continue
		}
		used[i] = true
		lp := filletLoop{edges: []*Edge{e}}
		c := coedge{e: e}
		lp.pts = append(lp.pts, c.points()...)
		for !e.closed && !d3.EqualWithin(lp.pts[0], lp.pts[len(lp.pts)-1], tol) {
			end := lp.pts[len(lp.pts)-1]
			next := -1
			for j, o := range es {
				if used[j] || o.closed {
					continue
				}
				if d3.EqualWithin(o.first(), end, tol) {
					c, next = coedge{e: o}, j
				} else if d3.EqualWithin(o.last(), end, tol) {
					c, next = coedge{e: o, rev: true}, j
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("edges do not form a closed loop: %w", axial.ErrConstruction)
			}
			used[next] = true
			lp.edges = append(lp.edges, es[next])
			lp.pts = append(lp.pts, c.points()[1:]...)
		}
		lp.pts = lp.pts[:len(lp.pts)-1]
		if len(lp.pts) < 3 {
			return nil, fmt.Errorf("fillet loop has %d points: %w", len(lp.pts), axial.ErrConstruction)
		}
		loops = append(loops, lp)
	}
	return loops, nil
}

// blendLoop returns the blend face of radius r along lp.
func (k *Kernel) blendLoop(sh *Shape, lp filletLoop, r float64) (*Face, error) {
	inLoop := make(map[*Edge]bool)
	for _, e := range lp.edges {
		inLoop[e] = true
	}
	var (
		support *revolved
		walls   []*Face
	)
	for _, f := range sh.faces() {
		adjacent := false
		for _, e := range f.edges() {
			if inLoop[e] {
				adjacent = true
				break
			}
		}
		if adjacent {
			if f.kind == patchFace {
				walls = append(walls, f)
			}
			continue
		}
		rv, ok := f.surf.(*revolved)
		if support == nil && ok && f.kind == revolvedFace && onRevolved(rv, lp.pts) {
			support = rv
		}
	}
	if support == nil {
		return nil, fmt.Errorf("no supporting surface of revolution: %w", axial.ErrFilletInfeasible)
	}
	if len(walls) == 0 {
		return nil, fmt.Errorf("no wall faces adjacent to loop: %w", axial.ErrConstruction)
	}
	axis := kernel.Axis{Origin: support.origin, Dir: support.dir}
	radial := func(p r3.Vec) r3.Vec {
		rel := r3.Sub(p, axis.Origin)
		return r3.Unit(r3.Sub(rel, r3.Scale(r3.Dot(rel, axis.Dir), axis.Dir)))
	}
	// The wall rises from the supporting surface towards or away from the axis.
	var loopR, wallR float64
	for _, p := range lp.pts {
		loopR += axis.RadialDistance(p)
	}
	loopR /= float64(len(lp.pts))
	var nWall int
	for _, f := range walls {
		m, err := f.mesh()
		if err != nil {
			return nil, err
		}
		for _, v := range m.verts {
			wallR += axis.RadialDistance(v)
		}
		nWall += len(m.verts)
	}
	wallR /= float64(nWall)
	up := 1.0
	if wallR < loopR {
		up = -1
	}
	ccw := loopOrientation(axis, lp.pts) > 0
	n := len(lp.pts)
	normals := make([]r3.Vec, n)
	walld := make([]r3.Vec, n)
	for i, p := range lp.pts {
		m := radial(p)
		t := r3.Sub(lp.pts[(i+1)%n], lp.pts[(i+n-1)%n])
		out := r3.Cross(t, m)
		if !ccw {
			out = r3.Scale(-1, out)
		}
		normals[i] = r3.Unit(out)
		walld[i] = r3.Scale(up, m)
	}
	if cr := minConcaveRadius(lp.pts, normals); r > cr {
		return nil, fmt.Errorf("radius %g exceeds concave radius %g: %w", r, cr, axial.ErrFilletInfeasible)
	}
	for i, p := range lp.pts {
		if !support.spans(r3.Add(p, r3.Scale(r, normals[i]))) {
			return nil, fmt.Errorf("radius %g footprint leaves supporting face: %w", r, axial.ErrFilletInfeasible)
		}
	}
	b := &blend{spine: lp.pts, n: normals, e: walld, r: r}
	boundary := func(v float64) *Edge {
		pts := make([]r3.Vec, n+1)
		for i := 0; i < n; i++ {
			pts[i] = b.Evaluate(float64(i)/float64(n), v)
		}
		pts[n] = pts[0]
		return newEdge(pts, true)
	}
	return &Face{
		kind: blendFace,
		surf: b,
		loop: []coedge{{e: boundary(0)}, {e: boundary(1), rev: true}},
		nu:   n + 1,
		nv:   max(k.SurfaceSamples/3, 4),
	}, nil
}

func onRevolved(rv *revolved, pts []r3.Vec) bool {
	for _, p := range pts {
		if !rv.contains(p, supportTol) {
			return false
		}
	}
	return true
}

// spans reports whether p projects inside the profile segment of s.
func (s *revolved) spans(p r3.Vec) bool {
	q := s.meridian(p)
	a, b := s.meridian(s.a), s.meridian(s.b)
	ab := r3.Vec{X: b.X - a.X, Y: b.Y - a.Y}
	l2 := r3.Norm2(ab)
	if l2 == 0 {
		return false
	}
	t := ((q.X-a.X)*ab.X + (q.Y-a.Y)*ab.Y) / l2
	return t >= 0 && t <= 1
}

// loopOrientation returns the signed area of the loop in (arc length,
// axial) coordinates about axis, positive when counter-clockwise seen from
// outside the axis.
func loopOrientation(axis kernel.Axis, pts []r3.Vec) float64 {
	dir := r3.Unit(axis.Dir)
	e1 := perpendicular(dir)
	e2 := r3.Cross(dir, e1)
	var area, prevTheta float64
	uv := make([][2]float64, len(pts))
	for i, p := range pts {
		rel := r3.Sub(p, axis.Origin)
		theta := math.Atan2(r3.Dot(rel, e2), r3.Dot(rel, e1))
		if i > 0 {
			for theta-prevTheta > math.Pi {
				theta -= 2 * math.Pi
			}
			for theta-prevTheta < -math.Pi {
				theta += 2 * math.Pi
			}
		}
		prevTheta = theta
		uv[i] = [2]float64{theta * axis.RadialDistance(p), r3.Dot(rel, dir)}
	}
	for i := range uv {
		j := (i + 1) % len(uv)
		area += uv[i][0]*uv[j][1] - uv[j][0]*uv[i][1]
	}
	return area / 2
}

// minConcaveRadius returns the smallest circumradius of point triples whose
// centre lies on the outward side of the loop. Neighbours are taken a fixed
// fraction of the loop length apart so sampling density does not matter.
func minConcaveRadius(pts, normals []r3.Vec) float64 {
	n := len(pts)
	var length float64
	for i := range pts {
		length += r3.Norm(r3.Sub(pts[(i+1)%n], pts[i]))
	}
	h := length / 64
	neighbour := func(i, step int) int {
		var d float64
		j := i
		for k := 0; k < n-1 && d < h; k++ {
			next := ((j+step)%n + n) % n
			d += r3.Norm(r3.Sub(pts[next], pts[j]))
			j = next
		}
		return j
	}
	min := math.Inf(1)
	for i := range pts {
		a, b, c := pts[neighbour(i, -1)], pts[i], pts[neighbour(i, 1)]
		ab, ac := r3.Sub(b, a), r3.Sub(c, a)
		cross := r3.Cross(ab, ac)
		den := 2 * r3.Norm2(cross)
		if den < 1e-24 {
			continue
		}
		// Circumcentre relative to a.
		rel := r3.Scale(1/den, r3.Add(
			r3.Scale(r3.Norm2(ac), r3.Cross(cross, ab)),
			r3.Scale(r3.Norm2(ab), r3.Cross(ac, cross)),
		))
		centre := r3.Add(a, rel)
		if r3.Dot(r3.Sub(centre, b), normals[i]) <= 0 {
			continue
		}
		if rad := r3.Norm(rel); rad < min {
			min = rad
		}
	}
	return min
}
