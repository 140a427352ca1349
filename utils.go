package axial

// Clamp x between a and b, assume a <= b
func Clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

// Linspace returns n evenly spaced values over [start, stop], both included.
// The i'th value is computed directly so that midpoints such as 0.5 are exact.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	v := make([]float64, n)
	den := float64(n - 1)
	for i := range v {
		v[i] = start + (stop-start)*float64(i)/den
	}
	v[n-1] = stop
	return v
}
