// Package lof computes the local outlier factor (LOF) over a pair of
// materialized neighbor stores and keeps it up to date incrementally.
//
// LOF needs two neighbor views of the same population: a reference
// neighborhood (which neighbors vote on an object's score) and a
// reachability neighborhood (which neighbors define its local density).
// Both views may use different distance functions; when they coincide, a
// single shared store serves both roles.
//
// The Online engine listens for change events from both stores, pairs the
// two events belonging to one logical mutation, and recomputes only the
// identifiers whose density or score can actually have changed: first the
// local reachability density over the reverse neighborhood of the mutation
// in the reachability store, then the outlier factor over the reverse
// neighborhood of the density changes in the reference store.
package lof
