package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/knnlive/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a normally distributed float64 with mean 0 and
// standard deviation 1.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// UniformObjects generates n objects with uniform random vectors in [0,1)^dim
// and consecutive identifiers starting at firstID.
func (r *RNG) UniformObjects(n, dim int, firstID model.ObjectID) []model.Object {
	objs := make([]model.Object, n)
	for i := range objs {
		vec := make([]float64, dim)
		r.FillUniform(vec)
		objs[i] = model.Object{ID: firstID + model.ObjectID(i), Vector: vec}
	}
	return objs
}

// ClusterObjects generates n objects normally distributed around center with
// the given standard deviation and consecutive identifiers starting at
// firstID. Useful for building datasets with a known density structure.
func (r *RNG) ClusterObjects(n int, center []float64, stddev float64, firstID model.ObjectID) []model.Object {
	objs := make([]model.Object, n)
	for i := range objs {
		vec := make([]float64, len(center))
		for d := range vec {
			vec[d] = center[d] + r.NormFloat64()*stddev
		}
		objs[i] = model.Object{ID: firstID + model.ObjectID(i), Vector: vec}
	}
	return objs
}

// Points1D builds objects from 1-D positions with consecutive identifiers
// starting at firstID. Handy for scenarios with hand-computed neighbors.
func Points1D(firstID model.ObjectID, positions ...float64) []model.Object {
	objs := make([]model.Object, len(positions))
	for i, p := range positions {
		objs[i] = model.Object{ID: firstID + model.ObjectID(i), Vector: []float64{p}}
	}
	return objs
}
