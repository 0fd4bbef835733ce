package features

import (
	"gonum.org/v1/gonum/stat"
)

// Tail returns the last n values of xs (all of xs when shorter).
func Tail(xs []float64, n int) []float64 {
	if n <= 0 || n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}

// CoefficientOfVariation returns sample std / mean. ok is false with fewer
// than two values or a zero mean.
func CoefficientOfVariation(xs []float64) (cv float64, ok bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if mean == 0 {
		return 0, false
	}
	return std / mean, true
}

// NormalizedSlope fits y = a + b·i over the index and returns b as a
// percentage of the mean. ok is false with fewer than two values or a zero mean.
func NormalizedSlope(ys []float64) (pct float64, ok bool) {
	if len(ys) < 2 {
		return 0, false
	}
	mean := stat.Mean(ys, nil)
	if mean == 0 {
		return 0, false
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope / mean * 100, true
}
