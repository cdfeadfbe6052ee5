package lof

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/knnlive/knn"
	"github.com/hupe1980/knnlive/model"
)

// EventMismatchError describes a violation of the event pairing protocol:
// the two events of one logical mutation must come from the two distinct
// stores, carry the same kind and the same mutated identifiers. A violation
// means the caller interleaved mutations or the stores diverged; it is a
// fatal bug, so the engine panics with this value rather than continuing
// with stale state.
type EventMismatchError struct {
	Reason string
}

func (e *EventMismatchError) Error() string {
	return "event pairing violation: " + e.Reason
}

// Online keeps a score table incrementally consistent with two mutating
// neighbor stores.
//
// It registers itself as listener on both stores and withholds any
// recomputation until the events of both stores for the same mutation have
// arrived (the degenerate single-store configuration acts immediately). Once
// paired, it recomputes exactly the ripple of the mutation: densities over
// the reverse reachability neighborhood, then scores over the reverse
// reference neighborhood of the density changes.
//
// Online assumes mutations are serialized by the caller: one Insert or
// Delete, on both stores, at a time.
type Online struct {
	lof     *LOF
	res     *Result
	pending *knn.Event
}

// NewOnline bootstraps the score table with a full batch run and registers
// the engine on both stores of l.
func NewOnline(l *LOF) (*Online, error) {
	res, err := l.Run()
	if err != nil {
		return nil, err
	}

	o := &Online{lof: l, res: res}
	l.refer.RegisterListener(o)
	if l.reach != l.refer {
		l.reach.RegisterListener(o)
	}
	return o, nil
}

// Result returns the live score table.
func (o *Online) Result() *Result { return o.res }

// NeighborsChanged implements knn.Listener. It pairs the events of the two
// stores and triggers the incremental recomputation once both halves of a
// mutation have arrived.
func (o *Online) NeighborsChanged(e *knn.Event) {
	refer, reach := o.lof.refer, o.lof.reach

	if e.Source != refer && e.Source != reach {
		panic(&EventMismatchError{Reason: "event from unknown store"})
	}

	if o.pending == nil {
		if refer == reach {
			o.apply(e, e)
			return
		}
		o.pending = e
		return
	}

	first := o.pending
	if e.Source == first.Source {
		panic(&EventMismatchError{Reason: fmt.Sprintf("second %s event from store %q before the other store reported", e.Kind, e.Source.Name())})
	}
	if e.Kind != first.Kind {
		panic(&EventMismatchError{Reason: fmt.Sprintf("event kinds do not fit: %s != %s", first.Kind, e.Kind)})
	}
	if !first.SameMutation(e) {
		panic(&EventMismatchError{Reason: "mutated identifier sets do not fit"})
	}

	o.pending = nil
	if first.Source == refer {
		o.apply(first, e)
	} else {
		o.apply(e, first)
	}
}

func (o *Online) apply(eRefer, eReach *knn.Event) {
	switch eRefer.Kind {
	case knn.KindInsert:
		o.applyInsert(eRefer.Objects, eRefer.Updates, eReach.Updates)
	case knn.KindDelete:
		o.applyDelete(eRefer.Objects, eRefer.Updates, eReach.Updates)
	default:
		panic(&EventMismatchError{Reason: fmt.Sprintf("unsupported event kind: %s", eRefer.Kind)})
	}

	// One notification per mutation, after every affected row is written.
	o.res.notify()

	if o.lof.opts.Logger != nil {
		o.lof.opts.Logger.Debug("scores updated",
			"kind", eRefer.Kind.String(),
			"objects", len(eRefer.Objects),
		)
	}
}

// applyInsert recomputes the ripple of an insertion: the densities of the
// inserted objects, the reachability-updated owners and their reverse
// reachability neighborhood; then the scores of the density-dirty set, its
// reverse reference neighborhood, the inserted objects and the
// reference-updated owners.
func (o *Online) applyInsert(objects, refUpdates, reachUpdates []model.ObjectID) {
	seeds := unionIDs(objects, reachUpdates)
	dirty := o.recomputeDensities(o.withReverse(o.lof.reach, seeds))

	scoreIDs := unionIDs(o.withReverse(o.lof.refer, dirty), objects, refUpdates)
	o.recomputeScores(scoreIDs)
}

// applyDelete drops the rows of the deleted objects, then recomputes the
// densities of the reachability-updated owners and their reverse
// reachability neighborhood, and finally the scores of the density-dirty
// set, its reverse reference neighborhood and the reference-updated owners.
func (o *Online) applyDelete(objects, refUpdates, reachUpdates []model.ObjectID) {
	for _, id := range objects {
		o.res.remove(id)
	}

	dirty := o.recomputeDensities(o.withReverse(o.lof.reach, reachUpdates))

	scoreIDs := unionIDs(o.withReverse(o.lof.refer, dirty), refUpdates)
	o.recomputeScores(scoreIDs)
}

// recomputeDensities recomputes the LRD of every candidate and returns the
// identifiers whose value actually changed, bounding further propagation.
func (o *Online) recomputeDensities(candidates []model.ObjectID) []model.ObjectID {
	dirty := make([]model.ObjectID, 0, len(candidates))
	for _, id := range candidates {
		lrd, err := o.lof.computeLRD(id)
		if err != nil {
			// Candidates come from the exact reverse index; a miss means the
			// stores and the score table diverged.
			panic(&EventMismatchError{Reason: err.Error()})
		}
		// Note: a NaN previous value never compares equal, so identifiers
		// whose density was undefined are always treated as changed.
		old, ok := o.res.lrd(id)
		if !ok || old != lrd {
			o.res.setLRD(id, lrd)
			dirty = append(dirty, id)
		}
	}
	return dirty
}

func (o *Online) recomputeScores(ids []model.ObjectID) {
	for _, id := range ids {
		lof, err := o.lof.computeLOF(id, o.res)
		if err != nil {
			panic(&EventMismatchError{Reason: err.Error()})
		}
		o.res.setLOF(id, lof)
	}
}

// withReverse returns ids united with every owner that currently holds one
// of them in its neighbor list in the given store, sorted ascending.
func (o *Online) withReverse(s *knn.Store, ids []model.ObjectID) []model.ObjectID {
	set := roaring64.New()
	for _, id := range ids {
		set.Add(uint64(id))
	}
	for _, owners := range s.ReverseQuery(ids) {
		for _, owner := range owners {
			set.Add(uint64(owner))
		}
	}
	return toIDs(set)
}

func unionIDs(lists ...[]model.ObjectID) []model.ObjectID {
	set := roaring64.New()
	for _, ids := range lists {
		for _, id := range ids {
			set.Add(uint64(id))
		}
	}
	return toIDs(set)
}

func toIDs(set *roaring64.Bitmap) []model.ObjectID {
	ids := make([]model.ObjectID, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		ids = append(ids, model.ObjectID(it.Next()))
	}
	return ids
}
