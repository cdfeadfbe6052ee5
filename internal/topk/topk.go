// Package topk implements a bounded selection heap for exact k-nearest
// selection.
package topk

import "github.com/hupe1980/knnlive/model"

// Heap is a bounded max-heap of neighbor candidates ordered by
// (distance, id). It keeps the k best (smallest) candidates seen so far.
// It is value-based and does NOT implement container/heap to avoid
// interface overhead on the selection hot path.
type Heap struct {
	k     int
	items []model.Neighbor
}

// New creates a selection heap that retains the k best candidates.
func New(k int) *Heap {
	return &Heap{k: k, items: make([]model.Neighbor, 0, k)}
}

// Reset clears the heap for reuse, keeping its capacity.
func (h *Heap) Reset(k int) {
	h.k = k
	h.items = h.items[:0]
}

// Len returns the number of retained candidates.
func (h *Heap) Len() int { return len(h.items) }

// worse reports whether a ranks after b, i.e. a is the poorer candidate.
// The (distance, id) tie-break makes the retained set independent of the
// order in which candidates are pushed.
func worse(a, b model.Neighbor) bool {
	return b.Less(a)
}

// Push offers a candidate. If the heap is full and the candidate is worse
// than the current worst retained entry, it is dropped.
func (h *Heap) Push(n model.Neighbor) {
	if h.k <= 0 {
		return
	}
	if len(h.items) < h.k {
		h.items = append(h.items, n)
		h.siftUp(len(h.items) - 1)
		return
	}
	if worse(n, h.items[0]) {
		return
	}
	h.items[0] = n
	h.siftDown(0)
}

// List drains the heap into a neighbor list sorted by (distance, id).
// The heap is empty afterwards.
func (h *Heap) List() model.NeighborList {
	out := make(model.NeighborList, len(h.items))
	for i := len(h.items) - 1; i >= 0; i-- {
		out[i] = h.items[0]
		last := len(h.items) - 1
		h.items[0] = h.items[last]
		h.items = h.items[:last]
		if last > 0 {
			h.siftDown(0)
		}
	}
	return out
}

func (h *Heap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *Heap) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		worst := left
		if right := left + 1; right < n && worse(h.items[right], h.items[left]) {
			worst = right
		}
		if !worse(h.items[worst], h.items[i]) {
			return
		}
		h.items[i], h.items[worst] = h.items[worst], h.items[i]
		i = worst
	}
}
