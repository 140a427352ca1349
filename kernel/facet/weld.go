package facet

import (
	"math"
	"runtime"
	"sync"

	"github.com/soypat/axial/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = weldPoints{}
	_ kdtree.Bounder    = weldPoints{}
	_ kdtree.Comparable = weldPoint{}
)

// weldPoint is a point tagged with its index in the welded set.
type weldPoint struct {
	r3.Vec
	idx int
}

type weldPoints []weldPoint

func (w weldPoints) Index(i int) kdtree.Comparable { return w[i] }

func (w weldPoints) Len() int { return len(w) }

func (w weldPoints) Pivot(d kdtree.Dim) int {
	p := weldPlane{dim: int(d), pts: w}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (w weldPoints) Slice(start, end int) kdtree.Interface { return w[start:end] }

func (w weldPoints) Bounds() *kdtree.Bounding {
	min := r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := r3.Scale(-1, min)
	for _, p := range w {
		min = d3.MinElem(min, p.Vec)
		max = d3.MaxElem(max, p.Vec)
	}
	return &kdtree.Bounding{Min: weldPoint{Vec: min}, Max: weldPoint{Vec: max}}
}

// Compare returns a_d - b_d.
func (a weldPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return weldComp(a.Vec, b.(weldPoint).Vec, int(d))
}

func (a weldPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance between a and b.
func (a weldPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.Vec, b.(weldPoint).Vec))
}

func weldComp(a, b r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return a.X - b.X
	case 1:
		return a.Y - b.Y
	}
	return a.Z - b.Z
}

type weldPlane struct {
	dim int
	pts weldPoints
}

func (p weldPlane) Less(i, j int) bool {
	return weldComp(p.pts[i].Vec, p.pts[j].Vec, p.dim) < 0
}
func (p weldPlane) Swap(i, j int) { p.pts[i], p.pts[j] = p.pts[j], p.pts[i] }
func (p weldPlane) Len() int      { return len(p.pts) }
func (p weldPlane) Slice(start, end int) kdtree.SortSlicer {
	p.pts = p.pts[start:end]
	return p
}

// weld snaps every point to the first point of its cluster, where clusters
// join points closer than tol. With workers > 1 the neighbour queries run
// concurrently. It returns the number of moved points.
func weld(pts []r3.Vec, tol float64, workers int) int {
	if len(pts) < 2 || tol <= 0 {
		return 0
	}
	list := make(weldPoints, len(pts))
	for i, p := range pts {
		list[i] = weldPoint{Vec: p, idx: i}
	}
	tree := kdtree.New(list, false)
	near := make([][]int, len(pts))
	query := func(i int) {
		keep := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keep, weldPoint{Vec: pts[i], idx: -1})
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			if j := c.Comparable.(weldPoint).idx; j != i {
				near[i] = append(near[i], j)
			}
		}
	}
	if workers <= 1 {
		for i := range pts {
			query(i)
		}
	} else {
		var wg sync.WaitGroup
		jobs := make(chan int, workers)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					query(i)
				}
			}()
		}
		for i := range pts {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}
	// Union-find so clusters are transitive.
	parent := make([]int, len(pts))
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
	for i, ns := range near {
		for _, j := range ns {
			a, b := find(i), find(j)
			if a == b {
				continue
			}
			if b < a {
				a, b = b, a
			}
			parent[b] = a
		}
	}
	moved := 0
	for i := range pts {
		if r := find(i); r != i && pts[i] != pts[r] {
			pts[i] = pts[r]
			moved++
		}
	}
	return moved
}

func fuseWorkers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// weldShape welds the points of every edge of s in place and drops cached
// tessellations. s must not share edges with other shapes.
func weldShape(s *Shape, tol float64, workers int) int {
	edges := s.allEdges()
	var pts []r3.Vec
	for _, e := range edges {
		pts = append(pts, e.pts...)
	}
	moved := weld(pts, tol, workers)
	off := 0
	for _, e := range edges {
		copy(e.pts, pts[off:off+len(e.pts)])
		off += len(e.pts)
		if e.closed {
			e.pts[len(e.pts)-1] = e.pts[0]
		}
		e.degenerate = e.degenerate || e.length() < 1e-12
	}
	for _, f := range s.faces() {
		f.tess = nil
	}
	return moved
}
