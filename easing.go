package axial

// Easing remaps normalized sample positions in [0,1] onto [0,1]. Easings must
// be monotonic and map 0 to 0 and 1 to 1.
type Easing func(x float64) float64

// Linear is the identity easing.
func Linear(x float64) float64 { return x }

// Smootherstep is the quintic easing x³(6x² - 15x + 10). It clusters samples
// near both ends, where blade sections curve the most.
func Smootherstep(x float64) float64 {
	return x * x * x * (x*(6*x-15) + 10)
}

// Sample returns n samples of [0,1] distributed by the easing.
// A nil easing is Linear.
func (e Easing) Sample(n int) []float64 {
	v := Linspace(0, 1, n)
	if e == nil {
		return v
	}
	for i := range v {
		v[i] = e(v[i])
	}
	return v
}
