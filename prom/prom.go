// Package prom provides a Prometheus-backed implementation of
// knnlive.MetricsCollector.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/knnlive"
)

// Compile-time check.
var _ knnlive.MetricsCollector = (*Collector)(nil)

// Collector records mutation and query metrics into Prometheus.
type Collector struct {
	inserts         prometheus.Counter
	insertedObjects prometheus.Counter
	insertErrors    prometheus.Counter
	insertDuration  prometheus.Histogram
	deletes         prometheus.Counter
	deletedObjects  prometheus.Counter
	deleteErrors    prometheus.Counter
	deleteDuration  prometheus.Histogram
	searches        prometheus.Counter
	searchErrors    prometheus.Counter
	searchDuration  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "inserts_total",
			Help: "Number of insert mutations.",
		}),
		insertedObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "inserted_objects_total",
			Help: "Number of objects inserted.",
		}),
		insertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "insert_errors_total",
			Help: "Number of failed insert mutations.",
		}),
		insertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "knnlive", Name: "insert_duration_seconds",
			Help:    "Insert latency including incremental score recomputation.",
			Buckets: prometheus.DefBuckets,
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "deletes_total",
			Help: "Number of delete mutations.",
		}),
		deletedObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "deleted_objects_total",
			Help: "Number of objects deleted.",
		}),
		deleteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "delete_errors_total",
			Help: "Number of failed delete mutations.",
		}),
		deleteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "knnlive", Name: "delete_duration_seconds",
			Help:    "Delete latency including incremental score recomputation.",
			Buckets: prometheus.DefBuckets,
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "searches_total",
			Help: "Number of out-of-sample neighbor queries.",
		}),
		searchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knnlive", Name: "search_errors_total",
			Help: "Number of failed neighbor queries.",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "knnlive", Name: "search_duration_seconds",
			Help:    "Neighbor query latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, m := range []prometheus.Collector{
		c.inserts, c.insertedObjects, c.insertErrors, c.insertDuration,
		c.deletes, c.deletedObjects, c.deleteErrors, c.deleteDuration,
		c.searches, c.searchErrors, c.searchDuration,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordInsert implements knnlive.MetricsCollector.
func (c *Collector) RecordInsert(count int, duration time.Duration, err error) {
	c.inserts.Inc()
	c.insertedObjects.Add(float64(count))
	c.insertDuration.Observe(duration.Seconds())
	if err != nil {
		c.insertErrors.Inc()
	}
}

// RecordDelete implements knnlive.MetricsCollector.
func (c *Collector) RecordDelete(count int, duration time.Duration, err error) {
	c.deletes.Inc()
	c.deletedObjects.Add(float64(count))
	c.deleteDuration.Observe(duration.Seconds())
	if err != nil {
		c.deleteErrors.Inc()
	}
}

// RecordSearch implements knnlive.MetricsCollector.
func (c *Collector) RecordSearch(_ int, duration time.Duration, err error) {
	c.searches.Inc()
	c.searchDuration.Observe(duration.Seconds())
	if err != nil {
		c.searchErrors.Inc()
	}
}
