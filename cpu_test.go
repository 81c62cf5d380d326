package cpupool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCPUOracle struct {
	cpu int
	err error
}

func (f fakeCPUOracle) CurrentCPU() (int, error) {
	return f.cpu, f.err
}

func TestDefaultCPUOracleReturnsNonNegative(t *testing.T) {
	cpu, err := DefaultCPUOracle.CurrentCPU()
	if err != nil {
		// A sandboxed/seccomp-restricted environment may refuse the fast
		// path and its fallback both; that is the one case this oracle
		// contract allows an error.
		return
	}
	assert.GreaterOrEqual(t, cpu, 0)
}

func TestCurrentCPUPtrUsesOracle(t *testing.T) {
	p, err := CreatePool("oraclepool", 16, newTestAttr())
	require.NoError(t, err)
	defer p.Destroy()

	h, err := p.Malloc()
	require.NoError(t, err)

	saved := DefaultCPUOracle
	DefaultCPUOracle = fakeCPUOracle{cpu: 1}
	defer func() { DefaultCPUOracle = saved }()

	data, cpu, err := CurrentCPUPtr(p, h)
	require.NoError(t, err)
	assert.Equal(t, 1, cpu)
	assert.Len(t, data, int(p.ItemLen()))
}

func TestCurrentCPUPtrPropagatesOracleError(t *testing.T) {
	p, err := CreatePool("oraclefail", 16, newTestAttr())
	require.NoError(t, err)
	defer p.Destroy()

	h, err := p.Malloc()
	require.NoError(t, err)

	saved := DefaultCPUOracle
	DefaultCPUOracle = fakeCPUOracle{err: ErrNotSupported}
	defer func() { DefaultCPUOracle = saved }()

	_, _, err = CurrentCPUPtr(p, h)
	assert.ErrorIs(t, err, ErrNotSupported)
}
