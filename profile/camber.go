package profile

import (
	"fmt"
	"math"
	"sync"

	"github.com/soypat/axial"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// CamberResidualTol is the largest residual norm of an accepted camber
// solution.
const CamberResidualTol = 1e-9

// degenerateCamberTol is the lead-trail angle difference under which the
// section is left uncambered.
const degenerateCamberTol = 1e-4

// NoConvergenceError is returned by CamberSolver.Solve when the optimizer
// stops without reaching CamberResidualTol.
type NoConvergenceError struct {
	Lead, Trail, Position float64
	Residual              float64
	Status                optimize.Status
	// Err is the optimizer's error, if any.
	Err error
}

func (e *NoConvergenceError) Error() string {
	msg := fmt.Sprintf("camber solve lead=%g trail=%g position=%g: status %v, residual %g",
		e.Lead, e.Trail, e.Position, e.Status, e.Residual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NoConvergenceError) Unwrap() error { return axial.ErrNoConvergence }

type camberKey struct{ lead, trail, pos float64 }

type camberSolution struct{ m, alpha float64 }

// CamberSolver finds the maximum camber and stagger angle of a section from
// its leading and trailing edge metal angles. Solutions are cached by their
// exact inputs. The zero value is ready to use and safe for concurrent use.
type CamberSolver struct {
	mu    sync.Mutex
	cache map[camberKey]camberSolution
}

// Solve returns the maximum camber m and stagger angle alpha for which the
// camber line of position p meets the chord at angles lea and tea:
//  2m/p     = tan(lea - alpha)
//  2m/(p-1) = tan(tea - alpha)
// Angles closer than 1e-4 give an uncambered section staggered at lea.
func (s *CamberSolver) Solve(lea, tea, p float64) (m, alpha float64, err error) {
	if !(p > 0 && p < 1) {
		return 0, 0, fmt.Errorf("camber position %g not in (0,1): %w", p, axial.ErrInvalidInput)
	}
	if math.IsNaN(lea) || math.IsNaN(tea) {
		return 0, 0, fmt.Errorf("camber angles lead=%g trail=%g: %w", lea, tea, axial.ErrInvalidInput)
	}
	if math.Abs(lea-tea) <= degenerateCamberTol {
		return 0, lea, nil
	}
	key := camberKey{lea, tea, p}
	s.mu.Lock()
	sol, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return sol.m, sol.alpha, nil
	}
	sol, err = solveCamber(lea, tea, p)
	if err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[camberKey]camberSolution)
	}
	if prev, ok := s.cache[key]; ok {
		sol = prev
	} else {
		s.cache[key] = sol
	}
	s.mu.Unlock()
	return sol.m, sol.alpha, nil
}

// Len returns the number of cached solutions.
func (s *CamberSolver) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func camberResidual(f, x []float64, lea, tea, p float64) {
	f[0] = 2*x[0]/p - math.Tan(lea-x[1])
	f[1] = 2*x[0]/(p-1) - math.Tan(tea-x[1])
}

func solveCamber(lea, tea, p float64) (camberSolution, error) {
	f := make([]float64, 2)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			camberResidual(f, x, lea, tea, p)
			return 0.5 * (f[0]*f[0] + f[1]*f[1])
		},
		Grad: func(grad, x []float64) {
			camberResidual(f, x, lea, tea, p)
			sl := 1 / math.Cos(lea-x[1])
			st := 1 / math.Cos(tea-x[1])
			grad[0] = f[0]*2/p + f[1]*2/(p-1)
			grad[1] = f[0]*sl*sl + f[1]*st*st
		},
	}
	x0 := []float64{0.1, (lea + tea) / 2}
	settings := &optimize.Settings{MajorIterations: 500}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if result == nil {
		return camberSolution{}, &NoConvergenceError{Lead: lea, Trail: tea, Position: p, Residual: math.Inf(1), Err: err}
	}
	camberResidual(f, result.X, lea, tea, p)
	res := floats.Norm(f, 2)
	if math.IsNaN(res) || res > CamberResidualTol {
		return camberSolution{}, &NoConvergenceError{
			Lead: lea, Trail: tea, Position: p,
			Residual: res,
			Status:   result.Status,
			Err:      err,
		}
	}
	return camberSolution{m: result.X[0], alpha: result.X[1]}, nil
}
