package knnlive

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the prom
// subpackage ships a Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordInsert is called after each insert mutation.
	// count is the number of inserted objects, duration the total time
	// including the incremental score recomputation, err is nil on success.
	RecordInsert(count int, duration time.Duration, err error)

	// RecordDelete is called after each delete mutation.
	RecordDelete(count int, duration time.Duration, err error)

	// RecordSearch is called after each out-of-sample neighbor query.
	// k is the number of neighbors requested.
	RecordSearch(k int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertObjects    atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteObjects    atomic.Int64
	DeleteErrors     atomic.Int64
	DeleteTotalNanos atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(count int, duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertObjects.Add(int64(count))
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(count int, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteObjects.Add(int64(count))
	b.DeleteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}
