package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{3, 4}, Tail(xs, 2))
	assert.Equal(t, xs, Tail(xs, 10))
	assert.Equal(t, xs, Tail(xs, 0))
}

func TestCoefficientOfVariation(t *testing.T) {
	// mean 10, sample std 1
	cv, ok := CoefficientOfVariation([]float64{9, 10, 11})
	assert.True(t, ok)
	assert.InDelta(t, 0.1, cv, 1e-12)

	_, ok = CoefficientOfVariation([]float64{5})
	assert.False(t, ok)
	_, ok = CoefficientOfVariation([]float64{-1, 1})
	assert.False(t, ok)
}

func TestNormalizedSlope(t *testing.T) {
	pct, ok := NormalizedSlope([]float64{90, 100, 110})
	assert.True(t, ok)
	assert.InDelta(t, 10.0, pct, 1e-9)

	pct, ok = NormalizedSlope([]float64{7, 7, 7, 7})
	assert.True(t, ok)
	assert.InDelta(t, 0.0, pct, 1e-12)

	_, ok = NormalizedSlope([]float64{0, 0})
	assert.False(t, ok)
	_, ok = NormalizedSlope(nil)
	assert.False(t, ok)
}
