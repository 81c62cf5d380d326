package cpupool

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAttrDefaults(t *testing.T) {
	a := NewAttr()
	assert.Equal(t, Global, a.poolType)
	assert.Equal(t, 1, a.maxCPUs)
	assert.False(t, a.robust)
	assert.Nil(t, a.logger)
}

func TestSetPerCPUAndGlobal(t *testing.T) {
	a := NewAttr().SetPerCPU(128, 8)
	assert.Equal(t, PerCPU, a.poolType)
	assert.Equal(t, uintptr(128), a.stride)
	assert.Equal(t, 8, a.maxCPUs)

	a.SetGlobal(256)
	assert.Equal(t, Global, a.poolType)
	assert.Equal(t, uintptr(256), a.stride)
	assert.Equal(t, 1, a.maxCPUs)
}

func TestSetRobustAndLogger(t *testing.T) {
	a := NewAttr().SetRobust()
	assert.True(t, a.robust)

	logger := slog.Default()
	a.SetLogger(logger)
	assert.Same(t, logger, a.logger)
}

func TestSetInitStoresCallbackAndPriv(t *testing.T) {
	a := NewAttr()
	a.SetInit(func(priv any, base []byte, stride uintptr, cpu int) error {
		return nil
	}, "priv")
	assert.NotNil(t, a.initFn)
	assert.Equal(t, "priv", a.initPriv)
}
