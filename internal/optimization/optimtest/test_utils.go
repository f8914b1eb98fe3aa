// Package optimtest provides assertions shared by the optimization tests.
package optimtest

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// AssertFloat64SlicesEqual checks if two float64 slices are approximately equal
func AssertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// AssertBitIdentical fails unless got and want hold exactly the same bits.
func AssertBitIdentical(t *testing.T, got, want []float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Float64bits(got[i]) != math.Float64bits(want[i]) {
			t.Fatalf("at index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// NumericalGradient approximates the gradient of f at x with central
// differences.
func NumericalGradient(f func([]float64) float64, x []float64) []float64 {
	return fd.Gradient(nil, f, x, &fd.Settings{
		Formula: fd.Central,
		Step:    1e-6,
	})
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
