// Package distance provides the distance oracles consumed by the neighbor
// stores. An oracle is a pure, stateless function of two float64 vectors:
// it must be deterministic, symmetric and non-negative. Nothing in this
// package caches per-pair results, so deleting objects from a store never
// requires oracle invalidation.
package distance
