package facet

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/internal/d3"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// sewSamples is the number of arc length samples compared when matching
// two free edges.
const sewSamples = 16

// Sew joins faces along geometrically coincident free edges into a closed
// shell. The matching tolerance starts at opts.Tolerance and doubles on each
// try until no free edges remain.
func (k *Kernel) Sew(faces []kernel.Face, opts kernel.SewOptions) (kernel.Shell, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("sew: no faces: %w", axial.ErrConstruction)
	}
	tol, tries := opts.Tolerance, opts.MaxTries
	if tol <= 0 {
		tol = axial.SewStartTol
	}
	if tries <= 0 {
		tries = axial.SewMaxTries
	}
	fs := make([]*Face, len(faces))
	for i, f := range faces {
		ff, ok := asFace(f)
		if !ok {
			return nil, errForeign("sew")
		}
		// Work on copies, input faces keep their topology.
		cp := *ff
		cp.loop = append([]coedge(nil), ff.loop...)
		cp.tess = nil
		fs[i] = &cp
	}
	closed := false
	for try := 0; try < tries; try++ {
		free, err := freeEdgeList(fs)
		if err != nil {
			return nil, fmt.Errorf("sew: %w", err)
		}
		if len(free) == 0 {
			closed = true
			break
		}
		pairFreeEdges(fs, free, tol)
		if free, _ = freeEdgeList(fs); len(free) == 0 {
			closed = true
			break
		}
		tol *= 2
	}
	if !closed {
		free, _ := freeEdgeList(fs)
		return nil, fmt.Errorf("sew: %d free edges remain at tolerance %g: %w", len(free), tol, axial.ErrConstruction)
	}
	if tol > axial.SewWarnTol {
		log.WithFields(log.Fields{"tolerance": tol, "faces": len(fs)}).Warn("sewing needed a large tolerance")
	}
	orientFaces(fs)
	return &Shell{faces: fs}, nil
}

// freeEdgeList returns edges used by exactly one face in order of
// appearance. An edge used more than twice is an error.
func freeEdgeList(fs []*Face) ([]*Edge, error) {
	uses := make(map[*Edge]int)
	var order []*Edge
	for _, f := range fs {
		for _, e := range f.edges() {
			if uses[e] == 0 {
				order = append(order, e)
			}
			uses[e]++
		}
	}
	var free []*Edge
	for _, e := range order {
		switch n := uses[e]; {
		case n == 1:
			free = append(free, e)
		case n > 2:
			return nil, fmt.Errorf("edge %d used by %d faces: %w", e.id, n, axial.ErrConstruction)
		}
	}
	return free, nil
}

// pairFreeEdges replaces coincident free edges by a single shared edge.
func pairFreeEdges(fs []*Face, free []*Edge, tol float64) {
	paired := make(map[*Edge]bool)
	for i, a := range free {
		if paired[a] {
			continue
		}
		for _, b := range free[i+1:] {
			if paired[b] {
				continue
			}
			same, ok := edgesMatch(a, b, tol)
			if !ok {
				continue
			}
			paired[a], paired[b] = true, true
			replaceEdge(fs, b, a, !same)
			break
		}
	}
}

// edgesMatch reports whether a and b coincide within tol and whether they
// run in the same direction.
func edgesMatch(a, b *Edge, tol float64) (same, ok bool) {
	if a.closed != b.closed {
		return false, false
	}
	fwd := d3.EqualWithin(a.first(), b.first(), tol) && d3.EqualWithin(a.last(), b.last(), tol)
	bwd := d3.EqualWithin(a.first(), b.last(), tol) && d3.EqualWithin(a.last(), b.first(), tol)
	if !fwd && !bwd {
		return false, false
	}
	ra, rb := resample(a.pts, sewSamples), resample(b.pts, sewSamples)
	if fwd && polylinesWithin(ra, rb, false, tol) {
		return true, true
	}
	if bwd && polylinesWithin(ra, rb, true, tol) {
		return false, true
	}
	return false, false
}

func polylinesWithin(a, b []r3.Vec, reverse bool, tol float64) bool {
	n := len(a)
	for i := range a {
		j := i
		if reverse {
			j = n - 1 - i
		}
		if r3.Norm(r3.Sub(a[i], b[j])) > tol {
			return false
		}
	}
	return true
}

// resample returns n points evenly spaced by arc length along pts.
func resample(pts []r3.Vec, n int) []r3.Vec {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + r3.Norm(r3.Sub(pts[i], pts[i-1]))
	}
	total := cum[len(cum)-1]
	out := make([]r3.Vec, n)
	seg := 1
	for i := range out {
		s := total * float64(i) / float64(n-1)
		for seg < len(pts)-1 && cum[seg] < s {
			seg++
		}
		l := cum[seg] - cum[seg-1]
		if l == 0 {
			out[i] = pts[seg]
			continue
		}
		t := (s - cum[seg-1]) / l
		out[i] = r3.Add(pts[seg-1], r3.Scale(t, r3.Sub(pts[seg], pts[seg-1])))
	}
	return out
}

// replaceEdge substitutes old by e in every face loop.
func replaceEdge(fs []*Face, old, e *Edge, reversed bool) {
	for _, f := range fs {
		for i, c := range f.loop {
			if c.e == old {
				f.loop[i] = coedge{e: e, rev: c.rev != reversed}
				f.tess = nil
			}
		}
	}
}

// orientFaces flips faces so that neighbours traverse their shared edge in
// opposite directions. Each connected component keeps the orientation of its
// first face.
func orientFaces(fs []*Face) {
	type use struct {
		f   int
		dir bool
	}
	uses := make(map[*Edge][]use)
	for i, f := range fs {
		for j, c := range f.loop {
			if !c.e.degenerate {
				uses[c.e] = append(uses[c.e], use{f: i, dir: f.uses(j)})
			}
		}
	}
	flipped := make([]bool, len(fs))
	visited := make([]bool, len(fs))
	for start := range fs {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			for j, c := range fs[i].loop {
				if c.e.degenerate {
					continue
				}
				dir := fs[i].uses(j) != flipped[i]
				for _, u := range uses[c.e] {
					if u.f == i || visited[u.f] {
						continue
					}
					visited[u.f] = true
					flipped[u.f] = u.dir == dir
					queue = append(queue, u.f)
				}
			}
		}
	}
	for i, f := range fs {
		if flipped[i] {
			f.flip = !f.flip
			f.tess = nil
		}
	}
}
