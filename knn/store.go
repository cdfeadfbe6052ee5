package knn

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/knnlive/distance"
	"github.com/hupe1980/knnlive/internal/topk"
	"github.com/hupe1980/knnlive/model"
)

// Options contains configuration options for a Store.
type Options struct {
	// Name labels the store in log output. Stores for different distance
	// functions over the same population should carry distinct names.
	Name string

	// Dimension is the fixed vector dimensionality for this store.
	// If 0, it is inferred from the first inserted object and enforced
	// afterwards.
	Dimension int

	// Parallelism bounds the number of goroutines used to materialize
	// neighbor lists during a mutation. If <= 0, GOMAXPROCS is used.
	Parallelism int

	// CheckInvariants enables a full structural validation of all neighbor
	// lists and reverse postings after every mutation. A violation panics
	// with an *InvariantViolationError. Intended for tests and debugging.
	CheckInvariants bool

	// Logger receives debug-level mutation logs. If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for a Store.
var DefaultOptions = Options{
	Name: "knn",
}

// Store materializes the kNN relation of a dynamic population under one
// distance function and keeps it exact across inserts and deletes.
//
// All exported methods are safe for concurrent readers; mutations must be
// serialized by the caller (one Insert or Delete in flight per population).
type Store struct {
	mu   sync.RWMutex
	k    int
	dist distance.Func
	opts Options

	dimension int
	vectors   map[model.ObjectID][]float64
	lists     map[model.ObjectID]model.NeighborList
	// reverse maps a target id to the set of owners currently holding it in
	// their neighbor list. Kept exact in lockstep with every list mutation.
	reverse map[model.ObjectID]*roaring64.Bitmap

	listeners []Listener
}

// New creates an empty Store with neighborhood size k and the given distance
// oracle.
func New(k int, dist distance.Func, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if k <= 0 {
		return nil, ErrInvalidK
	}
	if dist == nil {
		return nil, ErrNilDistanceFunc
	}

	return &Store{
		k:         k,
		dist:      dist,
		opts:      opts,
		dimension: opts.Dimension,
		vectors:   make(map[model.ObjectID][]float64),
		lists:     make(map[model.ObjectID]model.NeighborList),
		reverse:   make(map[model.ObjectID]*roaring64.Bitmap),
	}, nil
}

// K returns the neighborhood size.
func (s *Store) K() int { return s.k }

// Name returns the store's label.
func (s *Store) Name() string { return s.opts.Name }

// Len returns the current population size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Contains reports whether id is part of the population.
func (s *Store) Contains(id model.ObjectID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vectors[id]
	return ok
}

// IDs returns the population identifiers in ascending order.
func (s *Store) IDs() []model.ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsLocked()
}

func (s *Store) idsLocked() []model.ObjectID {
	ids := make([]model.ObjectID, 0, len(s.vectors))
	for id := range s.vectors {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Objects returns a copy of the full population, sorted by identifier.
func (s *Store) Objects() []model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objs := make([]model.Object, 0, len(s.vectors))
	for id, vec := range s.vectors {
		cp := make([]float64, len(vec))
		copy(cp, vec)
		objs = append(objs, model.Object{ID: id, Vector: cp})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs
}

// RegisterListener registers a listener for change events. Each listener
// receives every subsequent event exactly once.
func (s *Store) RegisterListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Query returns the current materialized neighbor list of owner.
// The returned list is a copy and safe to retain.
func (s *Store) Query(owner model.ObjectID) (model.NeighborList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[owner]
	if !ok {
		return nil, &UnknownIDError{ID: owner}
	}
	return list.Clone(), nil
}

// QueryForObject computes the k nearest neighbors of an object that is not
// necessarily part of the population. It does not mutate stored state.
func (s *Store) QueryForObject(obj []float64, k int) (model.NeighborList, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension > 0 && len(obj) != s.dimension {
		return nil, &DimensionMismatchError{Expected: s.dimension, Actual: len(obj)}
	}

	h := topk.New(k)
	for id, vec := range s.vectors {
		d := s.dist(obj, vec)
		if d != d || d < 0 {
			return nil, &InvalidDistanceError{A: id, B: id, Value: d}
		}
		h.Push(model.Neighbor{ID: id, Distance: d})
	}
	return h.List(), nil
}

// ReverseQuery returns, for every target, the set of owners whose neighbor
// list currently contains that target. The result is exact at call time;
// owner sets are sorted ascending. Unknown targets map to an empty set.
func (s *Store) ReverseQuery(targets []model.ObjectID) map[model.ObjectID][]model.ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.ObjectID][]model.ObjectID, len(targets))
	for _, target := range targets {
		out[target] = s.reverseOwnersLocked(target)
	}
	return out
}

func (s *Store) reverseOwnersLocked(target model.ObjectID) []model.ObjectID {
	bm, ok := s.reverse[target]
	if !ok || bm.IsEmpty() {
		return []model.ObjectID{}
	}
	owners := make([]model.ObjectID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		owners = append(owners, model.ObjectID(it.Next()))
	}
	return owners
}

// Insert adds the given objects to the population. New objects get a neighbor
// list computed from scratch; every pre-existing owner whose k-th neighbor
// boundary is crossed by a new object has it spliced into its list and is
// reported as updated in the resulting event.
//
// The mutation is atomic: an oracle fault or invalid argument leaves the
// store untouched. On success the event is delivered to all listeners before
// Insert returns. Inserting an empty batch is a no-op and fires no event.
func (s *Store) Insert(ctx context.Context, objects []model.Object) error {
	if len(objects) == 0 {
		return nil
	}

	s.mu.Lock()

	ev, err := s.insertLocked(ctx, objects)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if s.opts.CheckInvariants {
		if verr := s.validateLocked(); verr != nil {
			s.mu.Unlock()
			panic(&InvariantViolationError{Detail: verr.Error()})
		}
	}

	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if s.opts.Logger != nil {
		s.opts.Logger.DebugContext(ctx, "insert completed",
			"store", s.opts.Name,
			"inserted", len(ev.Objects),
			"updated", len(ev.Updates),
			"population", s.Len(),
		)
	}

	s.dispatch(ev, listeners)
	return nil
}

func (s *Store) insertLocked(ctx context.Context, objects []model.Object) (*Event, error) {
	dim := s.dimension
	seen := make(map[model.ObjectID]struct{}, len(objects))
	for _, obj := range objects {
		if _, ok := s.vectors[obj.ID]; ok {
			return nil, &DuplicateIDError{ID: obj.ID}
		}
		if _, ok := seen[obj.ID]; ok {
			return nil, &DuplicateIDError{ID: obj.ID}
		}
		seen[obj.ID] = struct{}{}
		if dim == 0 {
			dim = len(obj.Vector)
		}
		if len(obj.Vector) != dim || dim == 0 {
			return nil, &DimensionMismatchError{Expected: dim, Actual: len(obj.Vector)}
		}
	}

	existing := s.idsLocked()
	newPop := len(existing) + len(objects)
	limit := min(s.k, newPop-1)

	// Compute phase: all oracle evaluations happen here, before any state is
	// touched, so a fault cannot leave a partial mutation behind.
	rows, err := s.distanceRows(ctx, objects, existing)
	if err != nil {
		return nil, err
	}
	among, err := s.distancesAmong(objects)
	if err != nil {
		return nil, err
	}

	newLists := make([]model.NeighborList, len(objects))
	for j := range objects {
		h := topk.New(limit)
		for i, id := range existing {
			h.Push(model.Neighbor{ID: id, Distance: rows[j][i]})
		}
		for jj, other := range objects {
			if jj == j {
				continue
			}
			h.Push(model.Neighbor{ID: other.ID, Distance: amongAt(among, j, jj)})
		}
		newLists[j] = h.List()
	}

	// Splice: a pre-existing owner is affected iff some new object beats its
	// current k-th neighbor, or its list may grow because the population did.
	updatedLists := make(map[model.ObjectID]model.NeighborList)
	for i, owner := range existing {
		old := s.lists[owner]
		merged := old.Clone()
		for j, obj := range objects {
			merged = append(merged, model.Neighbor{ID: obj.ID, Distance: rows[j][i]})
		}
		merged.Sort()
		if len(merged) > limit {
			merged = merged[:limit]
		}
		if !listsEqual(old, merged) {
			updatedLists[owner] = merged
		}
	}

	// Commit phase.
	s.dimension = dim
	for j, obj := range objects {
		vec := make([]float64, len(obj.Vector))
		copy(vec, obj.Vector)
		s.vectors[obj.ID] = vec
		s.lists[obj.ID] = newLists[j]
		for _, n := range newLists[j] {
			s.posting(n.ID).Add(uint64(obj.ID))
		}
	}
	updated := make([]model.ObjectID, 0, len(updatedLists))
	for owner, list := range updatedLists {
		s.applyListLocked(owner, list)
		updated = append(updated, owner)
	}

	inserted := make([]model.ObjectID, len(objects))
	for j, obj := range objects {
		inserted[j] = obj.ID
	}
	sortIDs(inserted)
	sortIDs(updated)

	return &Event{Kind: KindInsert, Objects: inserted, Updates: updated, Source: s}, nil
}

// Delete removes the given identifiers from the population. Every remaining
// owner whose list contained a deleted object (found exactly via the reverse
// index) is rebuilt against the reduced population and reported as updated.
//
// The mutation is atomic; deleting an empty batch is a no-op and fires no
// event.
func (s *Store) Delete(ctx context.Context, ids []model.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()

	ev, err := s.deleteLocked(ctx, ids)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if s.opts.CheckInvariants {
		if verr := s.validateLocked(); verr != nil {
			s.mu.Unlock()
			panic(&InvariantViolationError{Detail: verr.Error()})
		}
	}

	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if s.opts.Logger != nil {
		s.opts.Logger.DebugContext(ctx, "delete completed",
			"store", s.opts.Name,
			"deleted", len(ev.Objects),
			"updated", len(ev.Updates),
			"population", s.Len(),
		)
	}

	s.dispatch(ev, listeners)
	return nil
}

func (s *Store) deleteLocked(ctx context.Context, ids []model.ObjectID) (*Event, error) {
	deleted := make(map[model.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.vectors[id]; !ok {
			return nil, &UnknownIDError{ID: id}
		}
		if _, ok := deleted[id]; ok {
			return nil, &DuplicateIDError{ID: id}
		}
		deleted[id] = struct{}{}
	}

	// The ripple of a delete is exactly the reverse neighborhood of the
	// deleted identifiers, minus the deleted identifiers themselves.
	affectedSet := roaring64.New()
	for id := range deleted {
		if bm, ok := s.reverse[id]; ok {
			affectedSet.Or(bm)
		}
	}
	for id := range deleted {
		affectedSet.Remove(uint64(id))
	}

	affected := make([]model.ObjectID, 0, affectedSet.GetCardinality())
	it := affectedSet.Iterator()
	for it.HasNext() {
		affected = append(affected, model.ObjectID(it.Next()))
	}

	limit := min(s.k, len(s.vectors)-len(deleted)-1)

	// Compute phase: rebuild every affected list against the reduced
	// population before touching any state.
	rebuilt := make([]model.NeighborList, len(affected))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism())
	for idx, owner := range affected {
		idx, owner := idx, owner
		g.Go(func() error {
			list, err := s.scanLocked(owner, s.vectors[owner], limit, deleted)
			if err != nil {
				return err
			}
			rebuilt[idx] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Commit phase.
	for idx, owner := range affected {
		s.applyListLocked(owner, rebuilt[idx])
	}
	for id := range deleted {
		for _, n := range s.lists[id] {
			if bm, ok := s.reverse[n.ID]; ok {
				bm.Remove(uint64(id))
			}
		}
		delete(s.lists, id)
		delete(s.vectors, id)
		delete(s.reverse, id)
	}

	removed := make([]model.ObjectID, len(ids))
	copy(removed, ids)
	sortIDs(removed)

	return &Event{Kind: KindDelete, Objects: removed, Updates: affected, Source: s}, nil
}

// Validate checks all neighbor-list invariants and the exactness of the
// reverse index. It is cheap enough for tests but scans the whole store.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validateLocked()
}

func (s *Store) validateLocked() error {
	wantLen := min(s.k, len(s.vectors)-1)
	expected := make(map[model.ObjectID]*roaring64.Bitmap, len(s.vectors))

	for owner, list := range s.lists {
		if err := list.Validate(owner, wantLen); err != nil {
			return err
		}
		for _, n := range list {
			if _, ok := s.vectors[n.ID]; !ok {
				return &UnknownIDError{ID: n.ID}
			}
			bm, ok := expected[n.ID]
			if !ok {
				bm = roaring64.New()
				expected[n.ID] = bm
			}
			bm.Add(uint64(owner))
		}
	}

	for target, bm := range s.reverse {
		want, ok := expected[target]
		if !ok {
			want = roaring64.New()
		}
		if !bm.Equals(want) {
			return &InvariantViolationError{Detail: "reverse postings diverge from neighbor lists"}
		}
		delete(expected, target)
	}
	if len(expected) > 0 {
		return &InvariantViolationError{Detail: "missing reverse postings"}
	}
	return nil
}

// distanceRows computes, in parallel, the distances from every new object to
// every existing population member. rows[j][i] is the distance between
// objects[j] and existing[i].
func (s *Store) distanceRows(ctx context.Context, objects []model.Object, existing []model.ObjectID) ([][]float64, error) {
	rows := make([][]float64, len(objects))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism())
	for j, obj := range objects {
		j, obj := j, obj
		g.Go(func() error {
			row := make([]float64, len(existing))
			for i, id := range existing {
				d := s.dist(obj.Vector, s.vectors[id])
				if d != d || d < 0 {
					return &InvalidDistanceError{A: obj.ID, B: id, Value: d}
				}
				row[i] = d
			}
			rows[j] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// distancesAmong computes the pairwise distances within one insert batch
// (lower triangle, batch order).
func (s *Store) distancesAmong(objects []model.Object) ([][]float64, error) {
	among := make([][]float64, len(objects))
	for j := 1; j < len(objects); j++ {
		among[j] = make([]float64, j)
		for jj := 0; jj < j; jj++ {
			d := s.dist(objects[j].Vector, objects[jj].Vector)
			if d != d || d < 0 {
				return nil, &InvalidDistanceError{A: objects[j].ID, B: objects[jj].ID, Value: d}
			}
			among[j][jj] = d
		}
	}
	return among, nil
}

func amongAt(among [][]float64, a, b int) float64 {
	if a > b {
		return among[a][b]
	}
	return among[b][a]
}

// scanLocked selects the limit nearest neighbors of owner by a full scan,
// skipping the owner itself and every identifier in exclude.
func (s *Store) scanLocked(owner model.ObjectID, vec []float64, limit int, exclude map[model.ObjectID]struct{}) (model.NeighborList, error) {
	h := topk.New(limit)
	for id, other := range s.vectors {
		if id == owner {
			continue
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		d := s.dist(vec, other)
		if d != d || d < 0 {
			return nil, &InvalidDistanceError{A: owner, B: id, Value: d}
		}
		h.Push(model.Neighbor{ID: id, Distance: d})
	}
	return h.List(), nil
}

// applyListLocked swaps owner's list for a new one, updating the reverse
// postings for the entries that changed.
func (s *Store) applyListLocked(owner model.ObjectID, list model.NeighborList) {
	old := s.lists[owner]
	for _, n := range old {
		if !list.Contains(n.ID) {
			if bm, ok := s.reverse[n.ID]; ok {
				bm.Remove(uint64(owner))
			}
		}
	}
	for _, n := range list {
		if !old.Contains(n.ID) {
			s.posting(n.ID).Add(uint64(owner))
		}
	}
	s.lists[owner] = list
}

func (s *Store) posting(target model.ObjectID) *roaring64.Bitmap {
	bm, ok := s.reverse[target]
	if !ok {
		bm = roaring64.New()
		s.reverse[target] = bm
	}
	return bm
}

func (s *Store) dispatch(ev *Event, listeners []Listener) {
	for _, l := range listeners {
		l.NeighborsChanged(ev)
	}
}

func (s *Store) parallelism() int {
	if s.opts.Parallelism > 0 {
		return s.opts.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func listsEqual(a, b model.NeighborList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortIDs(ids []model.ObjectID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
