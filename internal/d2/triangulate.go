package d2

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
)

// Triangulate splits the simple polygon a into triangles by ear clipping.
// Returned triangles index into a and are counter-clockwise regardless of
// the winding of a.
func Triangulate(a Set) ([][3]int, error) {
	n := len(a)
	if n < 3 {
		return nil, errors.New("polygon needs at least 3 vertices")
	}
	idx := make([]int, n)
	if a.Area() >= 0 {
		for i := range idx {
			idx[i] = i
		}
	} else {
		for i := range idx {
			idx[i] = n - 1 - i
		}
	}
	tris := make([][3]int, 0, n-2)
	guard := 0
	for len(idx) > 3 {
		m := len(idx)
		clipped := false
		for i := 0; i < m; i++ {
			ip, ic, in := idx[(i-1+m)%m], idx[i], idx[(i+1)%m]
			if !isEar(a, idx, ip, ic, in) {
				continue
			}
			tris = append(tris, [3]int{ip, ic, in})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Numerically flat remainder: clip the flattest corner.
			guard++
			if guard > n {
				return nil, errors.New("polygon is not simple")
			}
			best, bestCross := 0, -1.0
			for i := 0; i < m; i++ {
				c := cross3(a[idx[(i-1+m)%m]], a[idx[i]], a[idx[(i+1)%m]])
				if c > bestCross {
					best, bestCross = i, c
				}
			}
			tris = append(tris, [3]int{idx[(best-1+m)%m], idx[best], idx[(best+1)%m]})
			idx = append(idx[:best], idx[best+1:]...)
		}
	}
	tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	return tris, nil
}

func isEar(a Set, idx []int, ip, ic, in int) bool {
	p, c, q := a[ip], a[ic], a[in]
	if cross3(p, c, q) <= 0 {
		return false
	}
	for _, j := range idx {
		if j == ip || j == ic || j == in {
			continue
		}
		if inTriangle(a[j], p, c, q) {
			return false
		}
	}
	return true
}

func cross3(p, c, q r2.Vec) float64 {
	return r2.Cross(r2.Sub(c, p), r2.Sub(q, c))
}

func inTriangle(x, a, b, c r2.Vec) bool {
	d1 := r2.Cross(r2.Sub(b, a), r2.Sub(x, a))
	d2 := r2.Cross(r2.Sub(c, b), r2.Sub(x, b))
	d3 := r2.Cross(r2.Sub(a, c), r2.Sub(x, c))
	return d1 >= 0 && d2 >= 0 && d3 >= 0
}
