package blade

import (
	"fmt"
	"math"
	"sort"

	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
)

// seamSnap is the distance within which a chordwise sample is moved onto a
// seam instead of inserting the seam next to it.
const seamSnap = 1e-9

// Sampling configures how the blade surface is sampled and fitted.
type Sampling struct {
	// UPoints is the number of chordwise samples per side.
	UPoints int
	// VPoints is the number of spanwise samples.
	VPoints int
	UEase   axial.Easing
	VEase   axial.Easing
	// Seams are the chordwise coordinates at which the surface is split
	// into patches.
	Seams     []float64
	Method    kernel.Method
	Tolerance float64
}

// DefaultSeams returns the default seams, one on each side midway between
// the leading and trailing edges.
func DefaultSeams() []float64 { return []float64{0.25, 0.75} }

// DefaultSampling returns 100 chordwise samples per side and 30 spanwise
// samples, both eased towards their ends, and the default seams.
func DefaultSampling() Sampling {
	return Sampling{
		UPoints:   100,
		VPoints:   30,
		UEase:     axial.Smootherstep,
		VEase:     axial.Smootherstep,
		Seams:     DefaultSeams(),
		Method:    kernel.Approximate,
		Tolerance: axial.BladeApproxTol,
	}
}

func (s Sampling) validate() error {
	var msg string
	switch {
	case s.UPoints < 3:
		msg = fmt.Sprintf("need at least 3 chordwise samples, got %d", s.UPoints)
	case s.VPoints < 2:
		msg = fmt.Sprintf("need at least 2 spanwise samples, got %d", s.VPoints)
	case s.Method != kernel.Approximate && s.Method != kernel.Interpolate:
		msg = fmt.Sprintf("unknown fit method %d", s.Method)
	case s.Method == kernel.Approximate && !(s.Tolerance > 0):
		msg = fmt.Sprintf("approximation tolerance %g must be positive", s.Tolerance)
	default:
		_, err := normSeams(s.Seams)
		return err
	}
	return fmt.Errorf("blade sampling: %s: %w", msg, axial.ErrInvalidInput)
}

func (s Sampling) fitOptions() kernel.FitOptions {
	return kernel.FitOptions{
		Method:     s.Method,
		DegMin:     3,
		DegMax:     8,
		Continuity: kernel.C2,
		Tolerance:  s.Tolerance,
	}
}

// normSeams returns a sorted copy of seams.
func normSeams(seams []float64) ([]float64, error) {
	if len(seams) == 0 {
		return nil, fmt.Errorf("at least one seam is required: %w", axial.ErrInvalidInput)
	}
	out := append([]float64(nil), seams...)
	sort.Float64s(out)
	for i, s := range out {
		if !(s > 0 && s < 1) {
			return nil, fmt.Errorf("seam %g not in (0,1): %w", s, axial.ErrInvalidInput)
		}
		if i > 0 && s == out[i-1] {
			return nil, fmt.Errorf("duplicate seam %g: %w", s, axial.ErrInvalidInput)
		}
	}
	return out, nil
}

// UValues returns the sorted chordwise samples: n eased samples on each
// side, the shared trailing edge sampled once, the leading edge only at
// u=0, and every seam.
func (s Sampling) UValues() ([]float64, error) {
	seams, err := normSeams(s.Seams)
	if err != nil {
		return nil, err
	}
	if s.UPoints < 3 {
		return nil, fmt.Errorf("need at least 3 chordwise samples: %w", axial.ErrInvalidInput)
	}
	e := s.UEase.Sample(s.UPoints)
	u := make([]float64, 0, 2*len(e)+len(seams))
	for _, x := range e {
		u = append(u, x/2)
	}
	for _, x := range e[1 : len(e)-1] {
		u = append(u, x/2+0.5)
	}
	for _, seam := range seams {
		i := sort.SearchFloat64s(u, seam)
		switch {
		case i < len(u) && math.Abs(u[i]-seam) <= seamSnap:
			u[i] = seam
		case i > 0 && math.Abs(u[i-1]-seam) <= seamSnap:
			u[i-1] = seam
		default:
			u = append(u, 0)
			copy(u[i+1:], u[i:])
			u[i] = seam
		}
	}
	return u, nil
}

// Interval is a closed range of the chordwise coordinate. A wrapping
// interval crosses the leading edge and covers [Lo,1] and [0,Hi].
type Interval struct {
	Lo, Hi float64
	Wraps  bool
}

// Contains reports whether u lies in the interval.
func (iv Interval) Contains(u float64) bool {
	if iv.Wraps {
		return u >= iv.Lo || u <= iv.Hi
	}
	return u >= iv.Lo && u <= iv.Hi
}

// SeamIntervals returns the chordwise interval of every patch. Patch 0
// wraps around the leading edge from the last seam to the first.
func SeamIntervals(seams []float64) ([]Interval, error) {
	s, err := normSeams(seams)
	if err != nil {
		return nil, err
	}
	out := make([]Interval, len(s))
	out[0] = Interval{Lo: s[len(s)-1], Hi: s[0], Wraps: true}
	for i := 1; i < len(s); i++ {
		out[i] = Interval{Lo: s[i-1], Hi: s[i]}
	}
	return out, nil
}

// patchIndices returns, for every patch, the indices into the sorted u of
// its chordwise samples in surface order.
func patchIndices(u []float64, ivs []Interval) [][]int {
	out := make([][]int, len(ivs))
	for p, iv := range ivs {
		if !iv.Wraps {
			for i, x := range u {
				if iv.Contains(x) {
					out[p] = append(out[p], i)
				}
			}
			continue
		}
		for i, x := range u {
			if x >= iv.Lo {
				out[p] = append(out[p], i)
			}
		}
		for i, x := range u {
			if x <= iv.Hi {
				out[p] = append(out[p], i)
			}
		}
	}
	return out
}
