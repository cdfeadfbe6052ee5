package lof

import (
	"math"
	"sync"

	"github.com/hupe1980/knnlive/model"
)

// Result is the persistent score table: per-identifier local reachability
// density (LRD) and outlier score (LOF), plus the running [min, max] over
// the scores observed so far.
//
// The range only ever widens: deleting the object that produced the current
// extreme does not shrink it. Until a finite score has been observed,
// Range reports (+Inf, -Inf).
//
// Result is safe for concurrent readers. It is written only by the engine
// that owns it, one mutation at a time.
type Result struct {
	mu   sync.RWMutex
	lrds map[model.ObjectID]float64
	lofs map[model.ObjectID]float64
	min  float64
	max  float64
	subs []func()
}

func newResult() *Result {
	return &Result{
		lrds: make(map[model.ObjectID]float64),
		lofs: make(map[model.ObjectID]float64),
		min:  math.Inf(1),
		max:  math.Inf(-1),
	}
}

// Get returns the density and score of id. ok is false if id has no entry.
func (r *Result) Get(id model.ObjectID) (lrd, lof float64, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lrd, ok = r.lrds[id]
	if !ok {
		return 0, 0, false
	}
	lof = r.lofs[id]
	return lrd, lof, true
}

// Len returns the number of scored identifiers.
func (r *Result) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lofs)
}

// Range returns the running [min, max] over all scores observed so far.
func (r *Result) Range() (minScore, maxScore float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.min, r.max
}

// Subscribe registers fn to be called once per completed mutation, after all
// affected densities and scores have been written.
func (r *Result) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Result) lrd(id model.ObjectID) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.lrds[id]
	return v, ok
}

func (r *Result) setLRD(id model.ObjectID, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lrds[id] = v
}

func (r *Result) setLOF(id model.ObjectID, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lofs[id] = v
	// NaN scores (population-of-one sentinel) stay out of the range.
	if math.IsNaN(v) {
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

func (r *Result) remove(id model.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lrds, id)
	delete(r.lofs, id)
}

func (r *Result) notify() {
	r.mu.RLock()
	subs := make([]func(), len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
