package facet

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Fuse unites base and tools. Vertices closer than opts.Fuzzy are welded,
// coincident edges of different parts are merged and parts whose bounds
// touch become one solid. Tracked edges are reported through their
// surviving counterparts. Intersection curves of overlapping volumes are
// not computed.
func (k *Kernel) Fuse(base kernel.Shape, tools []kernel.Shape, opts kernel.FuseOptions, track []kernel.Edge) (kernel.FuseResult, error) {
	parts := make([]*Shape, 0, len(tools)+1)
	for _, s := range append([]kernel.Shape{base}, tools...) {
		sh, ok := asShape(s)
		if !ok {
			return kernel.FuseResult{}, errForeign("fuse")
		}
		parts = append(parts, sh)
	}
	// Copy every part so welding does not disturb the inputs.
	rename := make(map[*Edge]*Edge)
	var solids []*solid
	for _, p := range parts {
		cp, emap := p.clone()
		for from, to := range emap {
			rename[from] = to
		}
		solids = append(solids, cp.solids...)
	}
	for _, e := range track {
		ee, ok := asEdge(e)
		if !ok {
			return kernel.FuseResult{}, errForeign("fuse")
		}
		if _, ok := rename[ee]; !ok {
			return kernel.FuseResult{}, fmt.Errorf("fuse: tracked edge %d is not part of the operands: %w", ee.id, axial.ErrInvalidInput)
		}
	}
	all := &Shape{solids: solids}
	workers := 1
	if opts.Parallel {
		workers = fuseWorkers(k.Workers)
	}
	var moved int
	if opts.Fuzzy > 0 {
		moved = weldShape(all, opts.Fuzzy, workers)
	}
	tol := opts.Fuzzy
	if tol <= 0 {
		tol = k.VertexTol
	}
	merged := mergeCoincidentEdges(solids, tol)
	for from, to := range rename {
		if m, ok := merged[to]; ok {
			rename[from] = m
		}
	}
	if opts.Simplify {
		for _, e := range all.allEdges() {
			if !e.degenerate && e.length() < tol {
				e.degenerate = true
			}
		}
	}
	result := &Shape{solids: clusterSolids(solids, tol)}
	live := make(map[*Edge]bool)
	for _, e := range result.edges() {
		live[e] = true
	}
	var survivors []kernel.Edge
	seen := make(map[*Edge]bool)
	for _, e := range track {
		s := rename[e.(*Edge)]
		if live[s] && !seen[s] {
			seen[s] = true
			survivors = append(survivors, s)
		}
	}
	log.WithFields(log.Fields{
		"parts":     len(parts),
		"solids":    len(result.solids),
		"welded":    moved,
		"merged":    len(merged),
		"tracked":   len(track),
		"survivors": len(survivors),
	}).Debug("fuse")
	return kernel.FuseResult{Shape: result, Survivors: survivors}, nil
}

// mergeCoincidentEdges replaces edges of one solid that coincide with
// an edge of another solid. It returns the replaced edges and their survivor.
func mergeCoincidentEdges(solids []*solid, tol float64) map[*Edge]*Edge {
	type owned struct {
		e     *Edge
		owner int
	}
	var edges []owned
	seen := make(map[*Edge]bool)
	for i, so := range solids {
		for _, f := range so.faces() {
			for _, e := range f.edges() {
				if !seen[e] {
					seen[e] = true
					edges = append(edges, owned{e: e, owner: i})
				}
			}
		}
	}
	merged := make(map[*Edge]*Edge)
	var faces []*Face
	for _, so := range solids {
		faces = append(faces, so.faces()...)
	}
	for i, a := range edges {
		if _, gone := merged[a.e]; gone {
			continue
		}
		for _, b := range edges[i+1:] {
			if b.owner == a.owner {
				continue
			}
			if _, gone := merged[b.e]; gone {
				continue
			}
			same, ok := edgesMatch(a.e, b.e, tol)
			if !ok {
				continue
			}
			replaceEdge(faces, b.e, a.e, !same)
			merged[b.e] = a.e
		}
	}
	return merged
}

// clusterSolids groups solids whose bounding boxes overlap within tol into
// single solids.
func clusterSolids(solids []*solid, tol float64) []*solid {
	boxes := make([]r3.Box, len(solids))
	for i, so := range solids {
		boxes[i] = (&Shape{solids: []*solid{so}}).BoundingBox()
	}
	parent := make([]int, len(solids))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range solids {
		for j := i + 1; j < len(solids); j++ {
			if boxesOverlap(boxes[i], boxes[j], tol) {
				a, b := find(i), find(j)
				if a > b {
					a, b = b, a
				}
				parent[b] = a
			}
		}
	}
	index := make(map[int]*solid)
	var out []*solid
	for i, so := range solids {
		r := find(i)
		c, ok := index[r]
		if !ok {
			c = &solid{}
			index[r] = c
			out = append(out, c)
		}
		c.shells = append(c.shells, so.shells...)
	}
	return out
}

func boxesOverlap(a, b r3.Box, tol float64) bool {
	return a.Min.X <= b.Max.X+tol && b.Min.X <= a.Max.X+tol &&
		a.Min.Y <= b.Max.Y+tol && b.Min.Y <= a.Max.Y+tol &&
		a.Min.Z <= b.Max.Z+tol && b.Min.Z <= a.Max.Z+tol
}
