// Package model defines the shared value types of knnlive: object
// identifiers, neighbor entries and materialized neighbor lists.
package model

import (
	"fmt"
	"sort"
)

// ObjectID is the user-facing stable identifier of one data object.
// It is opaque to the index: callers assign it, and it stays valid for the
// object's lifetime. An ID may be reused after an explicit delete.
type ObjectID uint64

// Object pairs an identifier with its vector representation.
type Object struct {
	ID     ObjectID
	Vector []float64
}

// Neighbor is one entry of a neighbor list: a neighboring object and the
// distance to it under the owning store's distance function.
type Neighbor struct {
	ID       ObjectID
	Distance float64
}

// Less reports whether n sorts before o in the total neighbor order:
// ascending by distance, ties broken by ascending identifier.
func (n Neighbor) Less(o Neighbor) bool {
	if n.Distance != o.Distance {
		return n.Distance < o.Distance
	}
	return n.ID < o.ID
}

// NeighborList is an ordered materialized kNN list for one owner.
//
// Invariants (after any completed mutation of the owning store):
//   - len == min(k, population-1)
//   - sorted by (distance, id), no duplicate ids
//   - the owner itself never appears
type NeighborList []Neighbor

// KDist returns the k-distance of the list, i.e. the distance of the worst
// (last) entry. ok is false for an empty list.
func (l NeighborList) KDist() (float64, bool) {
	if len(l) == 0 {
		return 0, false
	}
	return l[len(l)-1].Distance, true
}

// IDs returns the neighbor identifiers in list order.
func (l NeighborList) IDs() []ObjectID {
	ids := make([]ObjectID, len(l))
	for i, n := range l {
		ids[i] = n.ID
	}
	return ids
}

// Contains reports whether id appears in the list.
func (l NeighborList) Contains(id ObjectID) bool {
	for _, n := range l {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a copy of the list. Stores hand out clones so that callers
// can never alias internal state.
func (l NeighborList) Clone() NeighborList {
	if l == nil {
		return nil
	}
	out := make(NeighborList, len(l))
	copy(out, l)
	return out
}

// Sort orders the list by (distance, id).
func (l NeighborList) Sort() {
	sort.Slice(l, func(i, j int) bool { return l[i].Less(l[j]) })
}

// Validate checks the structural invariants of the list for the given owner
// and expected length. It returns a descriptive error on the first violation.
func (l NeighborList) Validate(owner ObjectID, wantLen int) error {
	if len(l) != wantLen {
		return fmt.Errorf("neighbor list of %d: length %d, want %d", owner, len(l), wantLen)
	}
	seen := make(map[ObjectID]struct{}, len(l))
	for i, n := range l {
		if n.ID == owner {
			return fmt.Errorf("neighbor list of %d: contains owner", owner)
		}
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("neighbor list of %d: duplicate neighbor %d", owner, n.ID)
		}
		seen[n.ID] = struct{}{}
		if i > 0 && l[i].Less(l[i-1]) {
			return fmt.Errorf("neighbor list of %d: entries %d and %d out of order", owner, i-1, i)
		}
	}
	return nil
}
