package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableResolve(t *testing.T) {
	tab := NewTable(map[string]uint64{"stdout": 0x1000, "@errno": 0x2000})

	addr, err := tab.Resolve("@stdout")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), addr)

	addr, err = tab.Resolve("errno")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), addr)

	_, err = tab.Resolve("@stdin")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestTableNormalisesNames(t *testing.T) {
	tab := NewTable(nil)
	tab.Define("cafe\u0301", 7)

	addr, err := tab.Resolve("caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), addr)
	assert.Equal(t, []string{"caf\u00e9"}, tab.Names())
}

func TestNoneResolvesNothing(t *testing.T) {
	_, err := None{}.Resolve("@x")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}
