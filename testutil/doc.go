// Package testutil provides deterministic dataset generators and a seeded,
// thread-safe random number generator for tests and benchmarks.
package testutil
