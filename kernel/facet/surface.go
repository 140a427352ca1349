package facet

import (
	"math"

	"github.com/soypat/axial/internal/d3"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// projector is implemented by surfaces with a closed-form inverse, the only
// surfaces that can be trimmed by an arbitrary wire.
type projector interface {
	project(p r3.Vec) r2.Vec
}

// cylinder is parametrized by (angle, axial position). The angle is measured
// from e1 towards e2 = e1 x dir.
type cylinder struct {
	origin, dir, e1, e2 r3.Vec
	r                   float64
}

func newCylinder(axis kernel.Axis, r float64) *cylinder {
	dir := r3.Unit(axis.Dir)
	e1 := perpendicular(dir)
	return &cylinder{origin: axis.Origin, dir: dir, e1: e1, e2: r3.Cross(e1, dir), r: r}
}

// perpendicular returns a unit vector normal to dir, +Z when possible.
func perpendicular(dir r3.Vec) r3.Vec {
	ref := r3.Vec{Z: 1}
	if math.Abs(r3.Dot(ref, dir)) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Sub(ref, r3.Scale(r3.Dot(ref, dir), dir)))
}

func (c *cylinder) Domain() (u0, u1, v0, v1 float64) {
	return 0, 2 * math.Pi, math.Inf(-1), math.Inf(1)
}

func (c *cylinder) Evaluate(u, v float64) r3.Vec {
	s, co := math.Sincos(u)
	p := r3.Add(c.origin, r3.Scale(v, c.dir))
	p = r3.Add(p, r3.Scale(c.r*co, c.e1))
	return r3.Add(p, r3.Scale(c.r*s, c.e2))
}

func (c *cylinder) project(p r3.Vec) r2.Vec {
	rel := r3.Sub(p, c.origin)
	return r2.Vec{X: math.Atan2(r3.Dot(rel, c.e2), r3.Dot(rel, c.e1)), Y: r3.Dot(rel, c.dir)}
}

// plane is parametrized by coordinates along e1 and e2.
type plane struct {
	origin, e1, e2 r3.Vec
}

func (pl *plane) Domain() (u0, u1, v0, v1 float64) {
	return math.Inf(-1), math.Inf(1), math.Inf(-1), math.Inf(1)
}

func (pl *plane) Evaluate(u, v float64) r3.Vec {
	return r3.Add(pl.origin, r3.Add(r3.Scale(u, pl.e1), r3.Scale(v, pl.e2)))
}

func (pl *plane) project(p r3.Vec) r2.Vec {
	rel := r3.Sub(p, pl.origin)
	return r2.Vec{X: r3.Dot(rel, pl.e1), Y: r3.Dot(rel, pl.e2)}
}

func (pl *plane) normal() r3.Vec { return r3.Unit(r3.Cross(pl.e1, pl.e2)) }

// revolved is the surface swept by segment a-b turning by angle about the axis.
// u is the turn angle and v the position along the segment.
type revolved struct {
	origin, dir r3.Vec
	a, b        r3.Vec
	angle       float64
}

func (s *revolved) Domain() (u0, u1, v0, v1 float64) { return 0, s.angle, 0, 1 }

func (s *revolved) Evaluate(u, v float64) r3.Vec {
	p := r3.Add(s.a, r3.Scale(v, r3.Sub(s.b, s.a)))
	return rotateAbout(p, s.origin, s.dir, u)
}

// meridian returns the (axial, radial) coordinates of p.
func (s *revolved) meridian(p r3.Vec) r2.Vec {
	rel := r3.Sub(p, s.origin)
	x := r3.Dot(rel, s.dir)
	return r2.Vec{X: x, Y: r3.Norm(r3.Sub(rel, r3.Scale(x, s.dir)))}
}

// contains reports whether p lies on the surface within tol.
// Only full turns are supported.
func (s *revolved) contains(p r3.Vec, tol float64) bool {
	q := s.meridian(p)
	a, b := s.meridian(s.a), s.meridian(s.b)
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(q, a)) <= tol
	}
	t := r2.Dot(r2.Sub(q, a), ab) / l2
	if t < 0 || t > 1 {
		return false
	}
	return r2.Norm(r2.Sub(q, r2.Add(a, r2.Scale(t, ab)))) <= tol
}

// rotateAbout rotates p by angle about the line through origin along unit dir
// (Rodrigues' formula).
func rotateAbout(p, origin, dir r3.Vec, angle float64) r3.Vec {
	s, c := math.Sincos(angle)
	v := r3.Sub(p, origin)
	rot := r3.Add(r3.Scale(c, v), r3.Scale(s, r3.Cross(dir, v)))
	rot = r3.Add(rot, r3.Scale(r3.Dot(dir, v)*(1-c), dir))
	return r3.Add(origin, rot)
}

// blend is a rolling-ball fillet band of radius r along a closed spine.
// At v=0 the band touches the supporting surface in direction n and at v=1
// it meets the filleted wall in direction e.
type blend struct {
	spine []r3.Vec
	n, e  []r3.Vec
	r     float64
}

func (b *blend) Domain() (u0, u1, v0, v1 float64) { return 0, 1, 0, 1 }

func (b *blend) Evaluate(u, v float64) r3.Vec {
	m := len(b.spine)
	s := u * float64(m)
	i := int(math.Floor(s))
	f := s - float64(i)
	i0, i1 := ((i%m)+m)%m, (((i+1)%m)+m)%m
	mix := func(a, c r3.Vec) r3.Vec { return r3.Add(r3.Scale(1-f, a), r3.Scale(f, c)) }
	p := mix(b.spine[i0], b.spine[i1])
	n := r3.Unit(mix(b.n[i0], b.n[i1]))
	e := r3.Unit(mix(b.e[i0], b.e[i1]))
	sn, cs := math.Sincos(v * math.Pi / 2)
	c := r3.Add(p, r3.Scale(b.r, r3.Add(n, e)))
	return r3.Sub(c, r3.Scale(b.r, r3.Add(r3.Scale(cs, e), r3.Scale(sn, n))))
}

// mappedSurface applies a transform after evaluating a foreign surface.
type mappedSurface struct {
	s kernel.Surface
	t d3.Transform
}

func (m mappedSurface) Domain() (u0, u1, v0, v1 float64) { return m.s.Domain() }
func (m mappedSurface) Evaluate(u, v float64) r3.Vec     { return m.t.Transform(m.s.Evaluate(u, v)) }

// transformSurface returns s placed by t. Kernel surfaces are transformed in
// closed form so they keep their inverses.
func transformSurface(s kernel.Surface, t d3.Transform) kernel.Surface {
	switch s := s.(type) {
	case *bsplineSurface:
		return s.transformed(t)
	case *cylinder:
		return &cylinder{
			origin: t.Transform(s.origin),
			dir:    t.Direction(s.dir), e1: t.Direction(s.e1), e2: t.Direction(s.e2),
			r: s.r,
		}
	case *plane:
		return &plane{origin: t.Transform(s.origin), e1: t.Direction(s.e1), e2: t.Direction(s.e2)}
	case *revolved:
		return &revolved{
			origin: t.Transform(s.origin), dir: t.Direction(s.dir),
			a: t.Transform(s.a), b: t.Transform(s.b), angle: s.angle,
		}
	case *blend:
		nb := &blend{r: s.r, spine: make([]r3.Vec, len(s.spine)), n: make([]r3.Vec, len(s.n)), e: make([]r3.Vec, len(s.e))}
		for i := range s.spine {
			nb.spine[i] = t.Transform(s.spine[i])
			nb.n[i] = t.Direction(s.n[i])
			nb.e[i] = t.Direction(s.e[i])
		}
		return nb
	case mappedSurface:
		return mappedSurface{s: s.s, t: t.Mul(s.t)}
	}
	return mappedSurface{s: s, t: t}
}
