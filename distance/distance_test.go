package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuclidean(t *testing.T) {
	assert.Equal(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, Euclidean([]float64{1, 2}, []float64{1, 2}))
}

func TestSquaredEuclidean(t *testing.T) {
	assert.InDelta(t, 25.0, SquaredEuclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
}

func TestManhattan(t *testing.T) {
	assert.Equal(t, 7.0, Manhattan([]float64{0, 0}, []float64{3, 4}))
}

func TestChebyshev(t *testing.T) {
	assert.Equal(t, 4.0, Chebyshev([]float64{0, 0}, []float64{3, 4}))
}

func TestCosine(t *testing.T) {
	t.Run("Orthogonal", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	})

	t.Run("Parallel", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float64{2, 0}, []float64{5, 0}))
	})

	t.Run("Opposite", func(t *testing.T) {
		assert.InDelta(t, 2.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-12)
	})

	t.Run("ZeroVectorIsNaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Cosine([]float64{0, 0}, []float64{1, 0})))
	})
}

func TestRationalQuadratic(t *testing.T) {
	f := RationalQuadratic(1)

	assert.Equal(t, 0.0, f([]float64{1, 1}, []float64{1, 1}))

	// ||x-y||^2 = 1 -> d = 1/2.
	assert.InDelta(t, 0.5, f([]float64{0, 0}, []float64{1, 0}), 1e-12)

	// Bounded below 1 even for far points.
	d := f([]float64{0, 0}, []float64{1000, 0})
	assert.Less(t, d, 1.0)
	assert.Greater(t, d, 0.99)
}

func TestLngLat(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		assert.Equal(t, 0.0, LngLat([]float64{11.5, 48.1}, []float64{11.5, 48.1}))
	})

	t.Run("OneDegreeLatitude", func(t *testing.T) {
		// One degree of latitude is roughly 111.2 km on a spherical earth.
		d := LngLat([]float64{0, 0}, []float64{0, 1})
		assert.InDelta(t, 111195, d, 100)
	})

	t.Run("Symmetric", func(t *testing.T) {
		a, b := []float64{11.5, 48.1}, []float64{2.35, 48.85}
		assert.Equal(t, LngLat(a, b), LngLat(b, a))
	})

	t.Run("MunichToParis", func(t *testing.T) {
		// Roughly 680 km great-circle distance.
		d := LngLat([]float64{11.58, 48.14}, []float64{2.35, 48.85})
		assert.InDelta(t, 680000, d, 10000)
	})
}

func TestProvider(t *testing.T) {
	for _, m := range []Metric{MetricEuclidean, MetricSquaredEuclidean, MetricManhattan, MetricChebyshev, MetricCosine, MetricLngLat} {
		f, err := Provider(m)
		require.NoError(t, err, m.String())
		require.NotNil(t, f)
	}

	_, err := Provider(Metric(99))
	assert.Error(t, err)
}
