// Package knnlive maintains the k-nearest-neighbor relation of a dynamic
// point set incrementally and keeps a density-based outlier score (LOF)
// consistent with it on every insert and delete.
//
// Instead of recomputing the full O(n²) neighbor relation per mutation, the
// stores splice mutations into the materialized lists and report exactly
// which owners changed; the engine then recomputes densities and scores
// only for the ripple of identifiers whose dependency closure was touched,
// found through an exact reverse-neighbor index.
//
// # Quick Start
//
// Create a monitor with a single Euclidean neighborhood:
//
//	ctx := context.Background()
//	m, err := knnlive.New(3)
//	if err != nil {
//	    panic(err)
//	}
//
//	err = m.Insert(ctx, []model.Object{
//	    {ID: 1, Vector: []float64{0, 0}},
//	    {ID: 2, Vector: []float64{1, 0}},
//	    {ID: 3, Vector: []float64{0, 1}},
//	    {ID: 4, Vector: []float64{9, 9}},
//	})
//
//	lrd, lof, ok := m.Score(4) // 4 is the density outlier
//
// Separate reference and reachability distance functions:
//
//	m, err := knnlive.New(5,
//	    knnlive.WithReferenceDistance(distance.Euclidean),
//	    knnlive.WithReachabilityDistance(distance.Manhattan),
//	)
//
// React to score changes (one callback per completed mutation):
//
//	m.OnResultChanged(func() {
//	    minScore, maxScore := m.ScoreRange()
//	    // ...
//	})
//
// Mutations on one monitor must be serialized by the caller: one Insert or
// Delete in flight at a time. Reads are safe concurrently.
package knnlive
