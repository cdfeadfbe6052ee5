package knnlive

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/knnlive/distance"
	"github.com/hupe1980/knnlive/knn"
	"github.com/hupe1980/knnlive/lof"
	"github.com/hupe1980/knnlive/model"
)

// Monitor owns a population of vectors, one or two incrementally maintained
// neighbor stores over it, and a live LOF score table. Every Insert or
// Delete updates the neighbor relation and the affected densities and
// scores before it returns.
//
// Mutations must be serialized by the caller (one at a time); reads are safe
// concurrently.
type Monitor struct {
	k       int
	refer   *knn.Store
	reach   *knn.Store
	online  *lof.Online
	logger  *Logger
	metrics MetricsCollector
}

// New creates a Monitor with neighborhood size k.
func New(k int, optFns ...Option) (*Monitor, error) {
	opts := options{
		referenceDistance: distance.Euclidean,
		logger:            NoopLogger(),
		metrics:           NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	refer, err := knn.New(k, opts.referenceDistance, func(o *knn.Options) {
		o.Name = "reference"
		o.Dimension = opts.dimension
		o.Parallelism = opts.parallelism
		o.CheckInvariants = opts.checkInvariants
		o.Logger = opts.logger.Logger
	})
	if err != nil {
		return nil, err
	}

	reach := refer
	if opts.reachabilityDistance != nil {
		reach, err = knn.New(k, opts.reachabilityDistance, func(o *knn.Options) {
			o.Name = "reachability"
			o.Dimension = opts.dimension
			o.Parallelism = opts.parallelism
			o.CheckInvariants = opts.checkInvariants
			o.Logger = opts.logger.Logger
		})
		if err != nil {
			return nil, err
		}
	}

	l, err := lof.New(refer, reach, func(o *lof.Options) {
		o.Logger = opts.logger.Logger
	})
	if err != nil {
		return nil, err
	}

	online, err := lof.NewOnline(l)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		k:       k,
		refer:   refer,
		reach:   reach,
		online:  online,
		logger:  opts.logger.WithK(k),
		metrics: opts.metrics,
	}, nil
}

// K returns the neighborhood size.
func (m *Monitor) K() int { return m.k }

// Len returns the current population size.
func (m *Monitor) Len() int { return m.refer.Len() }

// ReferenceStore returns the neighbor store of the reference neighborhood.
func (m *Monitor) ReferenceStore() *knn.Store { return m.refer }

// ReachabilityStore returns the neighbor store of the reachability
// neighborhood. It is the same instance as the reference store unless
// WithReachabilityDistance was set.
func (m *Monitor) ReachabilityStore() *knn.Store { return m.reach }

// Result returns the live score table.
func (m *Monitor) Result() *lof.Result { return m.online.Result() }

// Insert adds objects to the population, updates both neighbor stores and
// recomputes the affected densities and scores before returning.
func (m *Monitor) Insert(ctx context.Context, objects []model.Object) error {
	start := time.Now()
	err := m.insert(ctx, objects)
	m.metrics.RecordInsert(len(objects), time.Since(start), err)
	m.logger.LogInsert(ctx, len(objects), err)
	return err
}

func (m *Monitor) insert(ctx context.Context, objects []model.Object) error {
	if err := m.refer.Insert(ctx, objects); err != nil {
		return err
	}
	if m.reach != m.refer {
		if err := m.reach.Insert(ctx, objects); err != nil {
			// The reference store already mutated; the pair no longer
			// describes the same population.
			return fmt.Errorf("%w: reachability insert: %w", ErrInconsistent, err)
		}
	}
	return nil
}

// Delete removes identifiers from the population, updates both neighbor
// stores and recomputes the affected densities and scores before returning.
func (m *Monitor) Delete(ctx context.Context, ids []model.ObjectID) error {
	start := time.Now()
	err := m.delete(ctx, ids)
	m.metrics.RecordDelete(len(ids), time.Since(start), err)
	m.logger.LogDelete(ctx, len(ids), err)
	return err
}

func (m *Monitor) delete(ctx context.Context, ids []model.ObjectID) error {
	if err := m.refer.Delete(ctx, ids); err != nil {
		return translateError(err)
	}
	if m.reach != m.refer {
		if err := m.reach.Delete(ctx, ids); err != nil {
			return fmt.Errorf("%w: reachability delete: %w", ErrInconsistent, err)
		}
	}
	return nil
}

// Neighbors returns the current reference neighbor list of id.
func (m *Monitor) Neighbors(id model.ObjectID) (model.NeighborList, error) {
	list, err := m.refer.Query(id)
	return list, translateError(err)
}

// SearchObject returns the k nearest reference neighbors of an object that
// is not necessarily part of the population. It does not mutate any state.
func (m *Monitor) SearchObject(ctx context.Context, obj []float64, k int) (model.NeighborList, error) {
	start := time.Now()
	list, err := m.refer.QueryForObject(obj, k)
	m.metrics.RecordSearch(k, time.Since(start), err)
	m.logger.LogSearch(ctx, k, len(list), err)
	return list, err
}

// Score returns the local reachability density and outlier score of id.
// ok is false if id is not part of the population.
func (m *Monitor) Score(id model.ObjectID) (lrd, score float64, ok bool) {
	return m.online.Result().Get(id)
}

// ScoreRange returns the running [min, max] over all scores observed so
// far. The range widens monotonically and never shrinks on delete.
func (m *Monitor) ScoreRange() (minScore, maxScore float64) {
	return m.online.Result().Range()
}

// OnResultChanged registers fn to be called once per completed mutation,
// after all affected densities and scores have been written.
func (m *Monitor) OnResultChanged(fn func()) {
	m.online.Result().Subscribe(fn)
}
