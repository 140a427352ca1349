package facet

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// FitCurve fits a curve through the ordered points.
func (k *Kernel) FitCurve(points []r3.Vec, opts kernel.FitOptions) (kernel.Curve, error) {
	if opts.Periodic {
		if opts.Method != kernel.Interpolate {
			return nil, fmt.Errorf("periodic fit requires interpolation: %w", axial.ErrInvalidInput)
		}
		return fitPeriodic(points)
	}
	if err := checkFitOptions(opts); err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("fit curve: need at least 2 points, got %d: %w", len(points), axial.ErrInvalidInput)
	}
	rows := [][]r3.Vec{points}
	params := chordParams(rows)
	fr, err := fitRows(rows, params, opts, opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("fit curve: %w", err)
	}
	return &bsplineCurve{p: fr.p, knots: fr.knots, ctrl: fr.ctrl[0]}, nil
}

// FitSurface fits a tensor product surface to grid, indexed [v][u].
// Approximation fits the rows first and the resulting control columns
// second, each within half the tolerance.
func (k *Kernel) FitSurface(grid [][]r3.Vec, opts kernel.FitOptions) (kernel.Surface, error) {
	if err := checkFitOptions(opts); err != nil {
		return nil, err
	}
	if opts.Periodic {
		return nil, fmt.Errorf("periodic surfaces not supported: %w", axial.ErrInvalidInput)
	}
	mv := len(grid)
	if mv < 2 {
		return nil, fmt.Errorf("fit surface: need at least 2 rows, got %d: %w", mv, axial.ErrInvalidInput)
	}
	mu := len(grid[0])
	for j := range grid {
		if len(grid[j]) != mu {
			return nil, fmt.Errorf("fit surface: ragged grid row %d: %w", j, axial.ErrInvalidInput)
		}
	}
	if mu < 2 {
		return nil, fmt.Errorf("fit surface: need at least 2 columns: %w", axial.ErrInvalidInput)
	}
	tol := opts.Tolerance
	if opts.Method == kernel.Interpolate {
		tol = axial.InterpTol
	}
	tu := chordParams(grid)
	rowFit, err := fitRows(grid, tu, opts, tol/2)
	if err != nil {
		return nil, fmt.Errorf("fit surface rows: %w", err)
	}
	// Columns of row control points, fitted along v.
	nu := len(rowFit.ctrl[0])
	cols := make([][]r3.Vec, nu)
	for i := range cols {
		cols[i] = make([]r3.Vec, mv)
		for j := 0; j < mv; j++ {
			cols[i][j] = rowFit.ctrl[j][i]
		}
	}
	tv := chordParams(transpose(grid))
	colFit, err := fitRows(cols, tv, opts, tol/2)
	if err != nil {
		return nil, fmt.Errorf("fit surface columns: %w", err)
	}
	nv := len(colFit.ctrl[0])
	ctrl := make([][]r3.Vec, nv)
	for j := range ctrl {
		ctrl[j] = make([]r3.Vec, nu)
		for i := 0; i < nu; i++ {
			ctrl[j][i] = colFit.ctrl[i][j]
		}
	}
	log.WithFields(log.Fields{
		"method": opts.Method, "samples": fmt.Sprintf("%dx%d", mu, mv),
		"degree": fmt.Sprintf("%dx%d", rowFit.p, colFit.p), "ctrl": fmt.Sprintf("%dx%d", nu, nv),
		"error": math.Max(rowFit.err, colFit.err),
	}).Debug("surface fitted")
	return &bsplineSurface{
		pu: rowFit.p, pv: colFit.p,
		ku: rowFit.knots, kv: colFit.knots,
		ctrl: ctrl,
		su:   mu, sv: mv,
	}, nil
}

func checkFitOptions(opts kernel.FitOptions) error {
	switch opts.Method {
	case kernel.Approximate:
		if opts.DegMin < 1 || opts.DegMax < opts.DegMin || opts.DegMax > maxDegree {
			return fmt.Errorf("degree range [%d,%d] outside [1,%d]: %w", opts.DegMin, opts.DegMax, maxDegree, axial.ErrInvalidInput)
		}
		if int(opts.Continuity) >= opts.DegMax {
			return fmt.Errorf("continuity C%d needs degree above %d: %w", opts.Continuity, opts.DegMax, axial.ErrInvalidInput)
		}
		if opts.Tolerance <= 0 {
			return fmt.Errorf("non-positive fit tolerance: %w", axial.ErrInvalidInput)
		}
	case kernel.Interpolate:
	default:
		return fmt.Errorf("unknown fit method %d: %w", opts.Method, axial.ErrInvalidInput)
	}
	return nil
}

type rowsFit struct {
	p     int
	knots []float64
	ctrl  [][]r3.Vec
	err   float64
}

// fitRows fits every row with a common degree, knot vector and parameters.
// Approximation searches control point counts upward, trying every allowed
// degree for each count, until all rows are within tol at the samples and
// stay inside the off-sample band between them. Interpolation, and
// approximation that never settles, use one control point per sample.
func fitRows(rows [][]r3.Vec, params []float64, opts kernel.FitOptions, tol float64) (rowsFit, error) {
	m := len(params)
	if opts.Method == kernel.Interpolate {
		return interpolateRows(rows, params, 3, tol)
	}
	degMin := max(opts.DegMin, int(opts.Continuity)+1)
	degMax := opts.DegMax
	if m-1 < degMin {
		// Too few samples for the requested degree: interpolate at lower degree.
		return interpolateRows(rows, params, m-1, tol)
	}
	var last error
	for n := degMin + 1; n < m; {
		for p := degMin; p <= min(degMax, n-1); p++ {
			fr, err := solveRows(rows, params, p, n)
			if err != nil {
				last = err
				continue
			}
			if fr.err > tol {
				continue
			}
			if ex := offSampleExcess(rows, params, fr, tol); ex > 0 {
				last = fmt.Errorf("degree %d with %d control points leaves the samples by %g", p, n, ex)
				continue
			}
			return fr, nil
		}
		n += 1 + n/8
	}
	fr, err := interpolateRows(rows, params, degMax, tol)
	if err != nil {
		if last == nil {
			last = errors.New("tolerance not reached")
		}
		return rowsFit{}, fmt.Errorf("approximation within %g failed: %v: %w", tol, last, axial.ErrConstruction)
	}
	log.WithFields(log.Fields{"samples": m, "degree": fr.p, "reason": last}).Debug("approximation fell back to interpolation")
	return fr, nil
}

// interpolateRows interpolates the rows at the highest degree up to maxDeg
// (at most cubic) that stays inside the off-sample band. Degree 1 always
// does and is the last resort.
func interpolateRows(rows [][]r3.Vec, params []float64, maxDeg int, tol float64) (rowsFit, error) {
	m := len(params)
	var last error
	for p := min(3, min(maxDeg, m-1)); p >= 1; p-- {
		fr, err := solveRows(rows, params, p, m)
		if err != nil {
			last = err
			continue
		}
		if p > 1 && offSampleExcess(rows, params, fr, tol) > 0 {
			continue
		}
		if p == 1 && m > 2 {
			log.WithField("samples", m).Warn("interpolating with a polyline")
		}
		return fr, nil
	}
	if last == nil {
		last = errors.New("no interpolant")
	}
	return rowsFit{}, fmt.Errorf("interpolation failed: %v: %w", last, axial.ErrConstruction)
}

// offSampleAt are the fractions of every sample interval where fits are
// checked against the data's Hermite estimate.
var offSampleAt = [...]float64{0.25, 0.5, 0.75}

// offSampleExcess returns the largest distance by which the fitted rows
// leave the band around a cubic Hermite estimate of the data inside each
// sample interval. The band is tol plus half the estimate's deviation from
// the chord, so a positive excess means the fit swings between samples.
func offSampleExcess(rows [][]r3.Vec, params []float64, fr rowsFit, tol float64) float64 {
	excess := math.Inf(-1)
	for r, row := range rows {
		c := bsplineCurve{p: fr.p, knots: fr.knots, ctrl: fr.ctrl[r]}
		for k := 0; k < len(params)-1; k++ {
			h := params[k+1] - params[k]
			if h <= 0 {
				continue
			}
			m0 := r3.Scale(h, tangent(row, params, k))
			m1 := r3.Scale(h, tangent(row, params, k+1))
			var want [len(offSampleAt)]r3.Vec
			var sag float64
			for i, s := range offSampleAt {
				want[i] = hermite(row[k], row[k+1], m0, m1, s)
				chord := r3.Add(row[k], r3.Scale(s, r3.Sub(row[k+1], row[k])))
				sag = math.Max(sag, r3.Norm(r3.Sub(want[i], chord)))
			}
			for i, s := range offSampleAt {
				d := r3.Norm(r3.Sub(c.Evaluate(params[k]+s*h), want[i]))
				excess = math.Max(excess, d-tol-sag/2)
			}
		}
	}
	if math.IsNaN(excess) {
		return math.Inf(1)
	}
	return excess
}

// tangent returns the derivative of row at sample k, that of the quadratic
// through the three samples nearest k.
func tangent(row []r3.Vec, params []float64, k int) r3.Vec {
	if len(row) < 3 {
		dt := params[len(row)-1] - params[0]
		if dt <= 0 {
			return r3.Vec{}
		}
		return r3.Scale(1/dt, r3.Sub(row[len(row)-1], row[0]))
	}
	i := min(max(k-1, 0), len(row)-3)
	ta, tb, tc := params[i], params[i+1], params[i+2]
	if !(ta < tb && tb < tc) {
		return r3.Vec{}
	}
	t := params[k]
	d := r3.Scale((2*t-tb-tc)/((ta-tb)*(ta-tc)), row[i])
	d = r3.Add(d, r3.Scale((2*t-ta-tc)/((tb-ta)*(tb-tc)), row[i+1]))
	return r3.Add(d, r3.Scale((2*t-ta-tb)/((tc-ta)*(tc-tb)), row[i+2]))
}

// hermite evaluates the cubic Hermite segment from p0 to p1 with scaled
// end tangents m0 and m1 at s in [0,1].
func hermite(p0, p1, m0, m1 r3.Vec, s float64) r3.Vec {
	s2, s3 := s*s, s*s*s
	pt := r3.Scale(2*s3-3*s2+1, p0)
	pt = r3.Add(pt, r3.Scale(s3-2*s2+s, m0))
	pt = r3.Add(pt, r3.Scale(-2*s3+3*s2, p1))
	return r3.Add(pt, r3.Scale(s3-s2, m1))
}

// schoenbergWhitney reports whether every basis function of the knot
// vector U is supported by a distinct sample, the condition under which
// the least-squares system has full rank.
func schoenbergWhitney(params, U []float64, p, n int) bool {
	k := 0
	for j := 0; j < n; j++ {
		lo, hi := U[j], U[j+p+1]
		for k < len(params) && params[k] <= lo && !(j == 0 && params[k] == lo) {
			k++
		}
		if k == len(params) {
			return false
		}
		if t := params[k]; t >= hi && !(j == n-1 && t == hi) {
			return false
		}
		k++
	}
	return true
}

// solveRows solves the least-squares problem with fixed endpoints for n
// control points of degree p. n == len(params) interpolates.
func solveRows(rows [][]r3.Vec, params []float64, p, n int) (rowsFit, error) {
	m := len(params)
	if p < 1 || n < p+1 || n > m {
		return rowsFit{}, fmt.Errorf("bad fit size: degree %d, %d control points, %d samples", p, n, m)
	}
	knots := knotVector(params, p, n)
	if !schoenbergWhitney(params, knots, p, n) {
		return rowsFit{}, fmt.Errorf("degree %d with %d control points: samples do not support every basis function", p, n)
	}
	basis := mat.NewDense(m, n, nil)
	var N [maxDegree + 1]float64
	for k, t := range params {
		span := findSpan(n-1, p, t, knots)
		basisFuns(span, t, p, knots, N[:])
		for j := 0; j <= p; j++ {
			basis.Set(k, span-p+j, N[j])
		}
	}
	ctrl := make([][]r3.Vec, len(rows))
	for r, row := range rows {
		ctrl[r] = make([]r3.Vec, n)
		ctrl[r][0] = row[0]
		ctrl[r][n-1] = row[m-1]
	}
	if n > 2 {
		inner := basis.Slice(1, m-1, 1, n-1)
		rhs := mat.NewDense(m-2, 3*len(rows), nil)
		for k := 1; k < m-1; k++ {
			n0, nn := basis.At(k, 0), basis.At(k, n-1)
			for r, row := range rows {
				q := r3.Sub(row[k], r3.Add(r3.Scale(n0, row[0]), r3.Scale(nn, row[m-1])))
				rhs.Set(k-1, 3*r, q.X)
				rhs.Set(k-1, 3*r+1, q.Y)
				rhs.Set(k-1, 3*r+2, q.Z)
			}
		}
		var qr mat.QR
		qr.Factorize(inner)
		var sol mat.Dense
		if err := qr.SolveTo(&sol, false, rhs); err != nil {
			return rowsFit{}, err
		}
		for r := range rows {
			for i := 1; i < n-1; i++ {
				ctrl[r][i] = r3.Vec{X: sol.At(i-1, 3*r), Y: sol.At(i-1, 3*r+1), Z: sol.At(i-1, 3*r+2)}
			}
		}
	}
	// Residual at every sample.
	var maxErr float64
	for r, row := range rows {
		for k := range params {
			var pt r3.Vec
			for i := 0; i < n; i++ {
				if b := basis.At(k, i); b != 0 {
					pt = r3.Add(pt, r3.Scale(b, ctrl[r][i]))
				}
			}
			maxErr = math.Max(maxErr, r3.Norm(r3.Sub(pt, row[k])))
		}
	}
	if math.IsNaN(maxErr) {
		return rowsFit{}, errors.New("fit produced NaN")
	}
	return rowsFit{p: p, knots: knots, ctrl: ctrl, err: maxErr}, nil
}

// knotVector returns the clamped knot vector for n control points of degree
// p over params: averaging for interpolation and the spacing of Piegl and
// Tiller (9.68) for approximation.
func knotVector(params []float64, p, n int) []float64 {
	m := len(params)
	U := make([]float64, n+p+1)
	for i := n; i < len(U); i++ {
		U[i] = 1
	}
	if n == m {
		for j := 1; j < n-p; j++ {
			var s float64
			for i := j; i < j+p; i++ {
				s += params[i]
			}
			U[j+p] = s / float64(p)
		}
		return U
	}
	d := float64(m) / float64(n-p)
	for j := 1; j < n-p; j++ {
		i := int(float64(j) * d)
		alpha := float64(j)*d - float64(i)
		U[p+j] = (1-alpha)*params[i-1] + alpha*params[i]
	}
	return U
}

// chordParams returns chord-length parameters averaged over rows.
// Rows of zero length do not contribute.
func chordParams(rows [][]r3.Vec) []float64 {
	m := len(rows[0])
	t := make([]float64, m)
	var used int
	for _, row := range rows {
		var total float64
		for k := 1; k < m; k++ {
			total += r3.Norm(r3.Sub(row[k], row[k-1]))
		}
		if total < 1e-14 {
			continue
		}
		used++
		var acc float64
		for k := 1; k < m; k++ {
			acc += r3.Norm(r3.Sub(row[k], row[k-1]))
			t[k] += acc / total
		}
	}
	if used == 0 {
		for k := range t {
			t[k] = float64(k) / float64(m-1)
		}
		return t
	}
	for k := range t {
		t[k] /= float64(used)
	}
	t[0], t[m-1] = 0, 1
	return t
}

func transpose(grid [][]r3.Vec) [][]r3.Vec {
	out := make([][]r3.Vec, len(grid[0]))
	for i := range out {
		out[i] = make([]r3.Vec, len(grid))
		for j := range grid {
			out[i][j] = grid[j][i]
		}
	}
	return out
}

// fitPeriodic interpolates a closed uniform cubic through points. A last point
// equal to the first is dropped.
func fitPeriodic(points []r3.Vec) (*periodicCurve, error) {
	pts := points
	if len(pts) > 1 && r3.Norm(r3.Sub(pts[0], pts[len(pts)-1])) < axial.InterpTol {
		pts = pts[:len(pts)-1]
	}
	m := len(pts)
	if m < 3 {
		return nil, fmt.Errorf("periodic fit needs 3 distinct points, got %d: %w", m, axial.ErrInvalidInput)
	}
	A := mat.NewDense(m, m, nil)
	B := mat.NewDense(m, 3, nil)
	for i := 0; i < m; i++ {
		A.Set(i, (i-1+m)%m, A.At(i, (i-1+m)%m)+1.0/6)
		A.Set(i, i, A.At(i, i)+4.0/6)
		A.Set(i, (i+1)%m, A.At(i, (i+1)%m)+1.0/6)
		B.Set(i, 0, pts[i].X)
		B.Set(i, 1, pts[i].Y)
		B.Set(i, 2, pts[i].Z)
	}
	var sol mat.Dense
	if err := sol.Solve(A, B); err != nil {
		return nil, fmt.Errorf("periodic fit: %v: %w", err, axial.ErrConstruction)
	}
	ctrl := make([]r3.Vec, m)
	for i := range ctrl {
		ctrl[i] = r3.Vec{X: sol.At(i, 0), Y: sol.At(i, 1), Z: sol.At(i, 2)}
	}
	return &periodicCurve{ctrl: ctrl}, nil
}
