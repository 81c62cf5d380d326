package cpupool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeBitmapAllocateFree(t *testing.T) {
	bm, err := newFreeBitmap(130) // spans more than two 64-bit words
	require.NoError(t, err)

	assert.False(t, bm.isAllocated(0))
	bm.markAllocated(0)
	assert.True(t, bm.isAllocated(0))
	assert.Equal(t, 1, bm.allocatedCount())

	bm.markAllocated(129)
	assert.Equal(t, 2, bm.allocatedCount())

	bm.markFree(0)
	assert.False(t, bm.isAllocated(0))
	assert.Equal(t, 1, bm.allocatedCount())

	bm.markFree(129)
	assert.Equal(t, 0, bm.allocatedCount())
}

func TestFreeBitmapDoubleFreePanics(t *testing.T) {
	bm, err := newFreeBitmap(8)
	require.NoError(t, err)

	bm.markAllocated(3)
	bm.markFree(3)

	assert.Panics(t, func() {
		bm.markFree(3)
	})
}

func TestFreeBitmapDoubleAllocatePanics(t *testing.T) {
	bm, err := newFreeBitmap(8)
	require.NoError(t, err)

	bm.markAllocated(2)

	assert.Panics(t, func() {
		bm.markAllocated(2)
	})
}

func TestFreeBitmapAssertAllFree(t *testing.T) {
	bm, err := newFreeBitmap(8)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		bm.assertAllFree()
	})

	bm.markAllocated(1)
	assert.Panics(t, func() {
		bm.assertAllFree()
	})
}

func TestFreeBitmapZeroSlots(t *testing.T) {
	bm, err := newFreeBitmap(0)
	require.NoError(t, err)
	assert.Equal(t, 0, bm.allocatedCount())
	assert.NotPanics(t, func() {
		bm.assertAllFree()
	})
}

func TestFreeBitmapAtomicSnapshotCount(t *testing.T) {
	bm, err := newFreeBitmap(8)
	require.NoError(t, err)
	bm.markAllocated(0)
	bm.markAllocated(5)
	assert.Equal(t, 2, bm.atomicSnapshotCount())
}
