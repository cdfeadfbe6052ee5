package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func is a distance oracle: it returns the distance between two vectors.
// Implementations must be pure and deterministic. Vectors are assumed to be
// the same length (caller's responsibility; stores enforce a fixed dimension).
//
// A Func is not required to satisfy the triangle inequality, but it must be
// symmetric and non-negative; the stores reject NaN or negative results as an
// oracle fault.
type Func func(a, b []float64) float64

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// SquaredEuclidean calculates the squared L2 distance between two vectors.
func SquaredEuclidean(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// Manhattan calculates the L1 distance between two vectors.
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev calculates the L-infinity distance between two vectors.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Cosine calculates the cosine distance 1 - cos(a, b).
// A zero vector has undefined direction; the result is NaN in that case and
// will be rejected by the store as an oracle fault.
func Cosine(a, b []float64) float64 {
	norm := math.Sqrt(floats.Dot(a, a) * floats.Dot(b, b))
	if norm == 0 {
		return math.NaN()
	}
	sim := floats.Dot(a, b) / norm
	// Clamp rounding overshoot so identical vectors yield exactly zero.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

// RationalQuadratic returns the dissimilarity induced by the rational
// quadratic kernel with constant c > 0:
//
//	d(x, y) = ||x-y||^2 / (||x-y||^2 + c)
//
// The result is bounded to [0, 1).
func RationalQuadratic(c float64) Func {
	return func(a, b []float64) float64 {
		d := floats.Distance(a, b, 2)
		d2 := d * d
		return d2 / (d2 + c)
	}
}

// Metric identifies one of the built-in distance functions.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricSquaredEuclidean
	MetricManhattan
	MetricChebyshev
	MetricCosine
	MetricLngLat
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredEuclidean:
		return "SquaredEuclidean"
	case MetricManhattan:
		return "Manhattan"
	case MetricChebyshev:
		return "Chebyshev"
	case MetricCosine:
		return "Cosine"
	case MetricLngLat:
		return "LngLat"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredEuclidean:
		return SquaredEuclidean, nil
	case MetricManhattan:
		return Manhattan, nil
	case MetricChebyshev:
		return Chebyshev, nil
	case MetricCosine:
		return Cosine, nil
	case MetricLngLat:
		return LngLat, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
