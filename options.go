package knnlive

import (
	"github.com/hupe1980/knnlive/distance"
)

type options struct {
	referenceDistance    distance.Func
	reachabilityDistance distance.Func
	dimension            int
	parallelism          int
	checkInvariants      bool
	logger               *Logger
	metrics              MetricsCollector
}

// Option configures Monitor construction.
type Option func(*options)

// WithReferenceDistance sets the distance function of the reference
// neighborhood (the neighbors that vote on an object's outlier score).
// Defaults to distance.Euclidean.
func WithReferenceDistance(f distance.Func) Option {
	return func(o *options) {
		if f != nil {
			o.referenceDistance = f
		}
	}
}

// WithReachabilityDistance sets the distance function of the reachability
// neighborhood (the neighbors that define an object's local density).
//
// If unset, the reference store serves both roles: only one neighbor store
// is maintained and every mutation produces a single change event.
func WithReachabilityDistance(f distance.Func) Option {
	return func(o *options) {
		o.reachabilityDistance = f
	}
}

// WithDimension fixes the vector dimensionality up front. If 0 (the
// default), it is inferred from the first inserted object.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithParallelism bounds the number of goroutines used to materialize
// neighbor lists during a mutation. If <= 0, GOMAXPROCS is used.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithInvariantChecks enables a full structural validation of all neighbor
// lists and reverse postings after every mutation. A violation panics;
// intended for tests and debugging, not production workloads.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.checkInvariants = enabled
	}
}

// WithLogger configures the logger. Defaults to a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// mutations and queries. Pass nil to disable metrics collection.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(o *options) {
		if c == nil {
			c = NoopMetricsCollector{}
		}
		o.metrics = c
	}
}
