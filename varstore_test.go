package stackeval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVariables(t *testing.T, vars Variables) {
	_, ok, err := vars.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, vars.Set("b", []byte{0x02}))
	require.NoError(t, vars.Set("a", []byte{0x01}))
	require.NoError(t, vars.Set("a", []byte{0x01, 0x01}))

	value, ok, err := vars.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x01}, value)

	list, err := vars.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
	assert.NotZero(t, list[0].Updated)

	err = vars.Set("bad name", []byte{0x01})
	assert.True(t, errors.Is(err, ErrParse))
	err = vars.Set("", []byte{0x01})
	assert.True(t, errors.Is(err, ErrParse))

	require.NoError(t, vars.Delete("a"))
	_, ok, err = vars.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	err = vars.Delete("a")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryVariables(t *testing.T) {
	vars := NewMemoryVariables()
	defer vars.Close()
	testVariables(t, vars)

	// 返回值是拷贝
	require.NoError(t, vars.Set("c", []byte{0x03}))
	value, _, _ := vars.Get("c")
	value[0] = 0xff
	again, _, _ := vars.Get("c")
	assert.Equal(t, []byte{0x03}, again)
}

func TestBadgerVariablesInMemory(t *testing.T) {
	vars, err := OpenBadgerVariables("")
	require.NoError(t, err)
	defer vars.Close()
	testVariables(t, vars)
}

func TestBadgerVariablesPersist(t *testing.T) {
	dir := t.TempDir()

	vars, err := OpenBadgerVariables(dir)
	require.NoError(t, err)
	testVariables(t, vars)
	require.NoError(t, vars.Set("pk", []byte{0x02, 0x03}))
	require.NoError(t, vars.Close())

	vars, err = OpenBadgerVariables(dir)
	require.NoError(t, err)
	defer vars.Close()

	value, ok, err := vars.Get("pk")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x02, 0x03}, value)

	value, err = NewBinder(vars).ResolveVariable("b")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, value)
}
