package lof_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knnlive/distance"
	"github.com/hupe1980/knnlive/knn"
	"github.com/hupe1980/knnlive/lof"
	"github.com/hupe1980/knnlive/model"
	"github.com/hupe1980/knnlive/testutil"
)

func newStore(t *testing.T, k int, dist distance.Func, objects []model.Object) *knn.Store {
	t.Helper()
	s, err := knn.New(k, dist, func(o *knn.Options) {
		o.CheckInvariants = true
	})
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), objects))
	return s
}

func TestNewErrors(t *testing.T) {
	s := newStore(t, 2, distance.Euclidean, nil)

	t.Run("NilStore", func(t *testing.T) {
		_, err := lof.New(nil, s)
		assert.ErrorIs(t, err, lof.ErrNilStore)

		_, err = lof.New(s, nil)
		assert.ErrorIs(t, err, lof.ErrNilStore)
	})

	t.Run("KMismatch", func(t *testing.T) {
		other := newStore(t, 3, distance.Euclidean, nil)
		_, err := lof.New(s, other)
		assert.ErrorIs(t, err, lof.ErrKMismatch)
	})
}

func TestRun(t *testing.T) {
	t.Run("HandComputedScores", func(t *testing.T) {
		// Three dense 1-D points at 0, 1, 2 and a stray one at 10, k=2.
		//
		// k-distances: 2, 1, 2, 9. Densities: 2/3, 1/2, 2/3, 2/17.
		// Scores: 7/8, 4/3, 7/8, 119/24.
		s := newStore(t, 2, distance.Euclidean, testutil.Points1D(1, 0, 1, 2, 10))

		l, err := lof.New(s, s)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		assert.Equal(t, 4, res.Len())

		for id, want := range map[model.ObjectID][2]float64{
			1: {2.0 / 3.0, 7.0 / 8.0},
			2: {1.0 / 2.0, 4.0 / 3.0},
			3: {2.0 / 3.0, 7.0 / 8.0},
			4: {2.0 / 17.0, 119.0 / 24.0},
		} {
			lrd, score, ok := res.Get(id)
			require.True(t, ok, "id %d", id)
			assert.InDelta(t, want[0], lrd, 1e-12, "lrd of %d", id)
			assert.InDelta(t, want[1], score, 1e-12, "lof of %d", id)
		}

		minScore, maxScore := res.Range()
		assert.InDelta(t, 7.0/8.0, minScore, 1e-12)
		assert.InDelta(t, 119.0/24.0, maxScore, 1e-12)
	})

	t.Run("EmptyPopulation", func(t *testing.T) {
		s := newStore(t, 2, distance.Euclidean, nil)

		l, err := lof.New(s, s)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		assert.Equal(t, 0, res.Len())
		minScore, maxScore := res.Range()
		assert.True(t, math.IsInf(minScore, 1))
		assert.True(t, math.IsInf(maxScore, -1))
	})

	t.Run("PopulationOfOne", func(t *testing.T) {
		s := newStore(t, 2, distance.Euclidean, testutil.Points1D(1, 0))

		l, err := lof.New(s, s)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		lrd, score, ok := res.Get(1)
		require.True(t, ok)
		assert.True(t, math.IsNaN(lrd))
		assert.True(t, math.IsNaN(score))

		// The undefined score stays out of the range.
		minScore, maxScore := res.Range()
		assert.True(t, math.IsInf(minScore, 1))
		assert.True(t, math.IsInf(maxScore, -1))
	})

	t.Run("Duplicates", func(t *testing.T) {
		// Two coincident points and a distant third, k=1. The duplicates have
		// infinite density and by convention score 1.0; the third point sees
		// an infinitely denser neighborhood and scores infinite.
		s := newStore(t, 1, distance.Euclidean, testutil.Points1D(1, 0, 0, 5))

		l, err := lof.New(s, s)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		for _, id := range []model.ObjectID{1, 2} {
			lrd, score, ok := res.Get(id)
			require.True(t, ok)
			assert.True(t, math.IsInf(lrd, 1))
			assert.Equal(t, 1.0, score)
		}

		lrd, score, ok := res.Get(3)
		require.True(t, ok)
		assert.InDelta(t, 1.0/5.0, lrd, 1e-12)
		assert.True(t, math.IsInf(score, 1))
	})

	t.Run("UniformGridScoresNearOne", func(t *testing.T) {
		// On an evenly spaced line every point has the same density, so all
		// interior scores sit at 1.
		s := newStore(t, 2, distance.Euclidean, testutil.Points1D(1, 0, 1, 2, 3, 4, 5, 6, 7))

		l, err := lof.New(s, s)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		_, score, ok := res.Get(4)
		require.True(t, ok)
		assert.InDelta(t, 1.0, score, 0.1)
	})

	t.Run("DualStores", func(t *testing.T) {
		// Squared Euclidean reachability distorts the density estimate but
		// must keep the stray point the clear top scorer.
		objs := testutil.Points1D(1, 0, 1, 2, 10)
		refer := newStore(t, 2, distance.Euclidean, objs)
		reach := newStore(t, 2, distance.SquaredEuclidean, objs)

		l, err := lof.New(refer, reach)
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)

		_, stray, ok := res.Get(4)
		require.True(t, ok)
		for _, id := range []model.ObjectID{1, 2, 3} {
			_, score, ok := res.Get(id)
			require.True(t, ok)
			assert.Less(t, score, stray)
		}
	})
}
