package axial

import (
	"math"
	"testing"
)

func TestLinspace(t *testing.T) {
	var tests = []struct {
		n    int
		want []float64
	}{
		{0, nil},
		{1, []float64{2}},
		{2, []float64{2, 4}},
		{5, []float64{2, 2.5, 3, 3.5, 4}},
	}
	for _, test := range tests {
		got := Linspace(2, 4, test.n)
		if len(got) != len(test.want) {
			t.Fatalf("n=%d: got %v", test.n, got)
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("n=%d: got %v, want %v", test.n, got, test.want)
				break
			}
		}
	}
	// Midpoint of an odd sampling is exact.
	if v := Linspace(0, 1, 101)[50]; v != 0.5 {
		t.Errorf("midpoint %v", v)
	}
}

func TestEasing(t *testing.T) {
	for _, e := range []Easing{nil, Linear, Smootherstep} {
		s := e.Sample(21)
		if s[0] != 0 || s[20] != 1 {
			t.Errorf("ends %g, %g", s[0], s[20])
		}
		for i := 1; i < len(s); i++ {
			if s[i] <= s[i-1] {
				t.Fatalf("not increasing at %d: %v", i, s)
			}
		}
		if math.Abs(s[10]-0.5) > 1e-15 {
			t.Errorf("midpoint %g", s[10])
		}
	}
	// Smootherstep has zero slope at both ends.
	const h = 1e-4
	if d := Smootherstep(h) / h; d > 1e-6 {
		t.Errorf("slope at 0 is %g", d)
	}
}

func TestParseProfileKind(t *testing.T) {
	for _, k := range []ProfileKind{Flat, NACA} {
		got, ok := ParseProfileKind(k.String())
		if !ok || got != k {
			t.Errorf("%v: got %v, %v", k, got, ok)
		}
	}
	if _, ok := ParseProfileKind("wing"); ok {
		t.Error("parsed unknown kind")
	}
	if ProfileKind(7).String() != "unknown" {
		t.Error("unknown kind name")
	}
	if Clamp(3, 0, 1) != 1 || Clamp(-1, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Error("clamp")
	}
}
