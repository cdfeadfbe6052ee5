package knn

import (
	"fmt"

	"github.com/hupe1980/knnlive/model"
)

// EventKind discriminates the two mutation kinds a store reports.
type EventKind int

const (
	// KindInsert marks an event produced by Store.Insert.
	KindInsert EventKind = iota + 1
	// KindDelete marks an event produced by Store.Delete.
	KindDelete
)

func (k EventKind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event describes one completed mutation of a Store.
//
// Objects holds the identifiers that were actually inserted or deleted.
// Updates holds the identifiers of pre-existing owners whose neighbor list
// changed as a side effect. Both slices are sorted ascending and never
// overlap. Source is the store that produced the event.
//
// Exactly one Event is created per mutation and delivered to each registered
// listener exactly once, synchronously, before the mutating call returns.
type Event struct {
	Kind    EventKind
	Objects []model.ObjectID
	Updates []model.ObjectID
	Source  *Store
}

// SameMutation reports whether two events describe the same logical mutation:
// equal kind and an identical set of mutated identifiers.
func (e *Event) SameMutation(o *Event) bool {
	if e.Kind != o.Kind || len(e.Objects) != len(o.Objects) {
		return false
	}
	for i, id := range e.Objects {
		if o.Objects[i] != id {
			return false
		}
	}
	return true
}

// Listener receives change events from a Store.
type Listener interface {
	// NeighborsChanged is invoked once per mutation. Invocation order among
	// multiple listeners is unspecified. The listener may query the source
	// store; it must not mutate it.
	NeighborsChanged(e *Event)
}
