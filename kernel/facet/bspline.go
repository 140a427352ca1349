package facet

import (
	"math"

	"github.com/soypat/axial/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// findSpan returns the knot span index of u for a spline with n+1 control
// points of degree p over knot vector U.
func findSpan(n, p int, u float64, U []float64) int {
	if u >= U[n+1] {
		return n
	}
	if u <= U[p] {
		return p
	}
	low, high := p, n+1
	mid := (low + high) / 2
	for u < U[mid] || u >= U[mid+1] {
		if u < U[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFuns computes the p+1 nonvanishing basis functions at u in span i
// into N (Cox-de Boor recursion).
func basisFuns(i int, u float64, p int, U []float64, N []float64) {
	var left, right [maxDegree + 1]float64
	N[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - U[i+1-j]
		right[j] = U[i+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			temp := N[r] / (right[r+1] + left[j-r])
			N[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		N[j] = saved
	}
}

const maxDegree = 9

// bsplineCurve is a clamped non-rational B-spline curve over [0,1].
type bsplineCurve struct {
	p     int
	knots []float64
	ctrl  []r3.Vec
}

func (c *bsplineCurve) Domain() (t0, t1 float64) {
	return c.knots[c.p], c.knots[len(c.ctrl)]
}

func (c *bsplineCurve) Evaluate(t float64) r3.Vec {
	var N [maxDegree + 1]float64
	n := len(c.ctrl) - 1
	span := findSpan(n, c.p, t, c.knots)
	basisFuns(span, t, c.p, c.knots, N[:])
	var pt r3.Vec
	for j := 0; j <= c.p; j++ {
		pt = r3.Add(pt, r3.Scale(N[j], c.ctrl[span-c.p+j]))
	}
	return pt
}

// periodicCurve is a closed uniform cubic B-spline over [0,1).
type periodicCurve struct {
	ctrl []r3.Vec
}

func (c *periodicCurve) Domain() (t0, t1 float64) { return 0, 1 }

func (c *periodicCurve) Evaluate(t float64) r3.Vec {
	m := len(c.ctrl)
	s := (t - math.Floor(t)) * float64(m)
	i := int(s)
	f := s - float64(i)
	f2, f3 := f*f, f*f*f
	b0 := (1 - f) * (1 - f) * (1 - f) / 6
	b1 := (3*f3 - 6*f2 + 4) / 6
	b2 := (-3*f3 + 3*f2 + 3*f + 1) / 6
	b3 := f3 / 6
	at := func(k int) r3.Vec { return c.ctrl[((k%m)+m)%m] }
	pt := r3.Scale(b0, at(i-1))
	pt = r3.Add(pt, r3.Scale(b1, at(i)))
	pt = r3.Add(pt, r3.Scale(b2, at(i+1)))
	return r3.Add(pt, r3.Scale(b3, at(i+2)))
}

// bsplineSurface is a clamped tensor-product B-spline surface over [0,1]².
// ctrl is indexed [v][u].
type bsplineSurface struct {
	pu, pv int
	ku, kv []float64
	ctrl   [][]r3.Vec
	// samples per direction of the data the surface was fitted to,
	// used as tessellation density.
	su, sv int
}

func (s *bsplineSurface) Domain() (u0, u1, v0, v1 float64) {
	return s.ku[s.pu], s.ku[len(s.ctrl[0])], s.kv[s.pv], s.kv[len(s.ctrl)]
}

func (s *bsplineSurface) Evaluate(u, v float64) r3.Vec {
	var Nu, Nv [maxDegree + 1]float64
	nu := len(s.ctrl[0]) - 1
	nv := len(s.ctrl) - 1
	su := findSpan(nu, s.pu, u, s.ku)
	sv := findSpan(nv, s.pv, v, s.kv)
	basisFuns(su, u, s.pu, s.ku, Nu[:])
	basisFuns(sv, v, s.pv, s.kv, Nv[:])
	var pt r3.Vec
	for l := 0; l <= s.pv; l++ {
		row := s.ctrl[sv-s.pv+l]
		var tmp r3.Vec
		for k := 0; k <= s.pu; k++ {
			tmp = r3.Add(tmp, r3.Scale(Nu[k], row[su-s.pu+k]))
		}
		pt = r3.Add(pt, r3.Scale(Nv[l], tmp))
	}
	return pt
}

func (s *bsplineSurface) transformed(t d3.Transform) *bsplineSurface {
	ctrl := make([][]r3.Vec, len(s.ctrl))
	for j := range ctrl {
		ctrl[j] = make([]r3.Vec, len(s.ctrl[j]))
		for i := range ctrl[j] {
			ctrl[j][i] = t.Transform(s.ctrl[j][i])
		}
	}
	cp := *s
	cp.ctrl = ctrl
	return &cp
}

func (s *bsplineSurface) density() (nu, nv int) { return s.su, s.sv }
