// Package knn maintains a fully materialized k-nearest-neighbor relation
// over a dynamic population of objects, incrementally updated on insert and
// delete, together with an exact reverse-neighbor index and a change-event
// listener protocol.
//
// A Store owns one neighbor list per object under a single distance
// function. Mutations are atomic: all distance evaluations happen before any
// state is touched, so a failing oracle leaves the store exactly as it was.
// After a mutation commits, every registered listener receives the resulting
// Event synchronously, before Insert or Delete returns.
//
// Mutations to one population must not interleave: callers run one Insert or
// Delete at a time. Concurrent readers are safe and always observe a fully
// updated state.
package knn
