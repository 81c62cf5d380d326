package cpupool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		poolIndex int
		offset    uintptr
	}{
		{"zero offset", 1, 0},
		{"max pool index", MaxPools - 1, 0},
		{"max offset", 1, MaxPoolLen - 1},
		{"mid range", 42, 4096},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := makeHandle(tc.poolIndex, tc.offset)
			gotIndex, gotOffset := h.decode()
			assert.Equal(t, tc.poolIndex, gotIndex)
			assert.Equal(t, tc.offset, gotOffset)
		})
	}
}

func TestHandleIsNil(t *testing.T) {
	var zero Handle
	require.True(t, zero.IsNil())

	h := makeHandle(1, 0)
	require.False(t, h.IsNil())
}

func TestHandleBitLayout(t *testing.T) {
	// The zero pool index is reserved: firstPool must be 1 so a fresh
	// directory never hands out a handle that decodes to index 0.
	assert.Equal(t, 1, firstPool)
	assert.Equal(t, 1<<PoolIndexBits, MaxPools)
	assert.Equal(t, wordBits-PoolIndexBits, PoolIndexShift)

	// A handle built from the highest legal pool index and offset must
	// not bleed into the reserved sign/overflow territory of a uintptr.
	h := makeHandle(MaxPools-1, MaxPoolLen-1)
	idx, off := h.decode()
	assert.Equal(t, MaxPools-1, idx)
	assert.Equal(t, uintptr(MaxPoolLen-1), off)
}
