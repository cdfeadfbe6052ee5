package lof

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/knnlive/knn"
	"github.com/hupe1980/knnlive/model"
)

var (
	// ErrNilStore is returned when a neighbor store is missing.
	ErrNilStore = errors.New("neighbor store must not be nil")

	// ErrKMismatch is returned when the two stores disagree on the
	// neighborhood size.
	ErrKMismatch = errors.New("stores must share the same k")
)

// Options contains configuration options for the LOF computation.
type Options struct {
	// Logger receives debug-level recomputation logs. If nil, logging is
	// disabled.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// LOF computes local reachability densities and outlier factors over a pair
// of neighbor stores: refer supplies the neighborhood that votes on an
// object's score, reach supplies the neighborhood that defines its density.
// Both stores must cover the same population with the same k; they may be
// the same instance.
type LOF struct {
	k     int
	refer *knn.Store
	reach *knn.Store
	opts  Options
}

// New creates a LOF computation over the given stores.
func New(refer, reach *knn.Store, optFns ...func(o *Options)) (*LOF, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if refer == nil || reach == nil {
		return nil, ErrNilStore
	}
	if refer.K() != reach.K() {
		return nil, ErrKMismatch
	}

	return &LOF{k: refer.K(), refer: refer, reach: reach, opts: opts}, nil
}

// Run computes densities and scores for the full current population from
// scratch and returns them as a fresh score table. It serves as bootstrap
// for the Online engine and as the golden model incremental updates are
// checked against.
func (l *LOF) Run() (*Result, error) {
	res := newResult()
	ids := l.refer.IDs()

	for _, id := range ids {
		lrd, err := l.computeLRD(id)
		if err != nil {
			return nil, err
		}
		res.setLRD(id, lrd)
	}
	for _, id := range ids {
		lof, err := l.computeLOF(id, res)
		if err != nil {
			return nil, err
		}
		res.setLOF(id, lof)
	}

	if l.opts.Logger != nil {
		minScore, maxScore := res.Range()
		l.opts.Logger.Debug("batch scores computed",
			"population", len(ids),
			"min", minScore,
			"max", maxScore,
		)
	}
	return res, nil
}

// computeLRD returns the local reachability density of id: the inverse mean
// reachability distance to its neighbors in the reach store, where
// reach-dist(p, o) = max(k-distance(o), dist(p, o)).
//
// Sentinels: NaN for an empty neighborhood (population of one); +Inf when
// all reachability distances are zero (duplicate points).
func (l *LOF) computeLRD(id model.ObjectID) (float64, error) {
	list, err := l.reach.Query(id)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return math.NaN(), nil
	}

	// Accumulation follows list order so that recomputing an unchanged
	// neighborhood is bit-identical.
	sum := 0.0
	for _, n := range list {
		nl, err := l.reach.Query(n.ID)
		if err != nil {
			return 0, err
		}
		kdist, _ := nl.KDist()
		sum += math.Max(kdist, n.Distance)
	}
	if sum == 0 {
		return math.Inf(1), nil
	}
	return float64(len(list)) / sum, nil
}

// computeLOF returns the outlier factor of id: the mean density of its
// reference neighbors relative to its own density, read from res.
//
// Sentinels: NaN for an empty neighborhood; 1.0 when the object's own
// density is infinite (it sits inside a group of duplicates and cannot be
// an outlier).
func (l *LOF) computeLOF(id model.ObjectID, res *Result) (float64, error) {
	lrdp, ok := res.lrd(id)
	if !ok {
		return 0, &knn.UnknownIDError{ID: id}
	}
	if math.IsInf(lrdp, 1) {
		return 1.0, nil
	}

	list, err := l.refer.Query(id)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return math.NaN(), nil
	}

	vals := make([]float64, len(list))
	for i, n := range list {
		v, ok := res.lrd(n.ID)
		if !ok {
			return 0, &knn.UnknownIDError{ID: n.ID}
		}
		vals[i] = v
	}
	return stat.Mean(vals, nil) / lrdp, nil
}
