package slab_test

import (
	"testing"

	"github.com/djdv/go-tlbcache/internal/slab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocRelease(t *testing.T) {
	s := slab.New[uint32, uint32](0)

	first, err := s.Alloc(1, 10, slab.Nil)
	require.NoError(t, err)
	second, err := s.Alloc(2, 20, first)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Live(first))
	assert.True(t, s.Live(second))

	node := s.Node(second)
	assert.Equal(t, uint32(2), node.Key)
	assert.Equal(t, uint32(20), node.Value)
	assert.Equal(t, first, node.Next)

	require.NoError(t, s.Release(first))
	assert.False(t, s.Live(first))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s.Cap())
}

func TestFreeListReuse(t *testing.T) {
	s := slab.New[int, int](0)
	indices := make([]int, 4)
	for i := range indices {
		index, err := s.Alloc(i, i, slab.Nil)
		require.NoError(t, err)
		indices[i] = index
	}
	require.NoError(t, s.Release(indices[1]))
	require.NoError(t, s.Release(indices[3]))

	// Most recently released slot is handed out first.
	reused, err := s.Alloc(7, 7, slab.Nil)
	require.NoError(t, err)
	assert.Equal(t, indices[3], reused)
	reused, err = s.Alloc(8, 8, slab.Nil)
	require.NoError(t, err)
	assert.Equal(t, indices[1], reused)

	assert.Equal(t, len(indices), s.Cap(), "free slots should be reused before growing")
	assert.Equal(t, len(indices), s.Len())
}

func TestReleaseNotLive(t *testing.T) {
	s := slab.New[int, int](0)
	index, err := s.Alloc(1, 1, slab.Nil)
	require.NoError(t, err)
	require.NoError(t, s.Release(index))

	err = s.Release(index)
	require.ErrorIs(t, err, slab.ErrNotLive)
	assert.Equal(t, 0, s.Len(), "double release must not change the live count")

	require.ErrorIs(t, s.Release(slab.Nil), slab.ErrNotLive)
	require.ErrorIs(t, s.Release(42), slab.ErrNotLive)
}

func TestLimit(t *testing.T) {
	const limit = 2
	s := slab.New[int, int](limit)
	assert.Equal(t, limit, s.Limit())
	for i := range limit {
		_, err := s.Alloc(i, i, slab.Nil)
		require.NoError(t, err)
	}
	index, err := s.Alloc(limit, limit, slab.Nil)
	require.ErrorIs(t, err, slab.ErrExhausted)
	assert.Equal(t, slab.Nil, index)
	assert.Equal(t, limit, s.Len())

	require.NoError(t, s.Release(0))
	_, err = s.Alloc(limit, limit, slab.Nil)
	assert.NoError(t, err, "released capacity should be allocatable again")
}

func TestZeroValue(t *testing.T) {
	var s slab.Slab[int, int]
	index, err := s.Alloc(1, 1, slab.Nil)
	require.NoError(t, err)
	require.NoError(t, s.Release(index))
	again, err := s.Alloc(2, 2, slab.Nil)
	require.NoError(t, err)
	assert.Equal(t, index, again)
	assert.Equal(t, 1, s.Len())
}
