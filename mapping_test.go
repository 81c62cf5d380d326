package cpupool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMappingRoundTrip(t *testing.T) {
	m := defaultMapping()
	require.NotNil(t, m.Map)
	require.NotNil(t, m.Unmap)

	region, err := m.Map(m.Priv, 4096)
	require.NoError(t, err)
	assert.Len(t, region, 4096)

	require.NoError(t, m.Unmap(m.Priv, region))
}

func TestAttributesSetMappingRestoresDefault(t *testing.T) {
	a := NewAttr().SetMapping(fakeMap, fakeUnmap, "cookie")
	assert.NotNil(t, a.mapping.Map)

	a.SetMapping(nil, nil, nil)
	region, err := a.mapping.Map(a.mapping.Priv, 64)
	require.NoError(t, err)
	require.NoError(t, a.mapping.Unmap(a.mapping.Priv, region))
}
