package cpupool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUList(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"0", []int{0}},
		{"0-3", []int{0, 1, 2, 3}},
		{"0-1,4,6-7", []int{0, 1, 4, 6, 7}},
	}
	for _, tc := range cases {
		got := parseCPUList(tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestRangeInitNUMADoesNotPanic(t *testing.T) {
	region := make([]byte, 4096)
	err := RangeInitNUMA(region, 0, 0)
	// On a system without NUMA sysfs this is a no-op; elsewhere mbind(2)
	// may refuse this heap region with an error. It must never panic.
	_ = err
}

func TestPoolInitNUMADoesNotPanic(t *testing.T) {
	p, err := CreatePool("numapool", 16, newTestAttr())
	require.NoError(t, err)
	defer p.Destroy()

	// Must not panic regardless of whether the host actually has NUMA
	// support; see numa_linux.go / numa_other.go.
	_ = p.InitNUMA(0)
}
