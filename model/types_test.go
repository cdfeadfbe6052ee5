package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborLess(t *testing.T) {
	t.Run("ByDistance", func(t *testing.T) {
		assert.True(t, Neighbor{ID: 9, Distance: 1}.Less(Neighbor{ID: 1, Distance: 2}))
		assert.False(t, Neighbor{ID: 1, Distance: 2}.Less(Neighbor{ID: 9, Distance: 1}))
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		assert.True(t, Neighbor{ID: 1, Distance: 1}.Less(Neighbor{ID: 2, Distance: 1}))
		assert.False(t, Neighbor{ID: 2, Distance: 1}.Less(Neighbor{ID: 1, Distance: 1}))
	})
}

func TestNeighborList(t *testing.T) {
	t.Run("KDist", func(t *testing.T) {
		kd, ok := NeighborList{{ID: 1, Distance: 1}, {ID: 2, Distance: 3}}.KDist()
		require.True(t, ok)
		assert.Equal(t, 3.0, kd)

		_, ok = NeighborList{}.KDist()
		assert.False(t, ok)
	})

	t.Run("Sort", func(t *testing.T) {
		l := NeighborList{{ID: 2, Distance: 1}, {ID: 3, Distance: 0.5}, {ID: 1, Distance: 1}}
		l.Sort()
		assert.Equal(t, NeighborList{{ID: 3, Distance: 0.5}, {ID: 1, Distance: 1}, {ID: 2, Distance: 1}}, l)
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		l := NeighborList{{ID: 1, Distance: 1}}
		c := l.Clone()
		c[0].Distance = 9
		assert.Equal(t, 1.0, l[0].Distance)
	})

	t.Run("IDsAndContains", func(t *testing.T) {
		l := NeighborList{{ID: 4, Distance: 1}, {ID: 7, Distance: 2}}
		assert.Equal(t, []ObjectID{4, 7}, l.IDs())
		assert.True(t, l.Contains(7))
		assert.False(t, l.Contains(5))
	})
}

func TestNeighborListValidate(t *testing.T) {
	valid := NeighborList{{ID: 2, Distance: 1}, {ID: 3, Distance: 2}}

	t.Run("OK", func(t *testing.T) {
		require.NoError(t, valid.Validate(1, 2))
	})

	t.Run("WrongLength", func(t *testing.T) {
		assert.Error(t, valid.Validate(1, 3))
	})

	t.Run("ContainsOwner", func(t *testing.T) {
		l := NeighborList{{ID: 1, Distance: 1}, {ID: 3, Distance: 2}}
		assert.Error(t, l.Validate(1, 2))
	})

	t.Run("Duplicate", func(t *testing.T) {
		l := NeighborList{{ID: 2, Distance: 1}, {ID: 2, Distance: 2}}
		assert.Error(t, l.Validate(1, 2))
	})

	t.Run("Unsorted", func(t *testing.T) {
		l := NeighborList{{ID: 2, Distance: 2}, {ID: 3, Distance: 1}}
		assert.Error(t, l.Validate(1, 2))
	})

	t.Run("TieOrderViolation", func(t *testing.T) {
		l := NeighborList{{ID: 3, Distance: 1}, {ID: 2, Distance: 1}}
		assert.Error(t, l.Validate(1, 2))
	})
}
