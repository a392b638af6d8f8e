package stackeval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOp(t *testing.T, text string) Operation {
	script, err := Compile(text, nil)
	require.NoError(t, err)
	require.Len(t, script.Ops, 1)
	return script.Ops[0]
}

func TestHistoryRecord(t *testing.T) {
	h := NewHistory()
	_, ok := h.Last()
	assert.False(t, ok)

	m := NewMachine()
	m.Main.PushBytes([]byte{0x01})
	first := h.Record(testOp(t, "0xaa01"), m.Snapshot(), "push 0x01 (1)", false, "")
	m.Main.PushBytes([]byte{0x02})
	second := h.Record(testOp(t, "0xaa02"), m.Snapshot(), "push 0x02 (2)", false, "")

	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, 2, h.Len())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, second, last)

	_, err := h.At(2)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = h.At(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	h.Clear()
	assert.Equal(t, 0, h.Len())
	again := h.Record(testOp(t, "OP_ADD"), Snapshot{}, "", true, "boom")
	assert.Equal(t, 0, again.Index)
	assert.True(t, again.Failed)
	assert.Equal(t, "boom", again.Err)
}

func TestHistoryImmutable(t *testing.T) {
	h := NewHistory()
	m := NewMachine()
	m.Main.PushBytes([]byte{0x01})
	returned := h.Record(testOp(t, "0xaa01"), m.Snapshot(), "push", false, "")
	require.Equal(t, []byte{0xaa, 0x01}, returned.Op.Data)

	// 修改返回值、原堆栈或读取到的拷贝都不影响已记录的步骤
	returned.Stack.Main[0].Data[0] = 0xff
	returned.Op.Data[0] = 0xff
	m.Main.PushBytes([]byte{0x02})

	got, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got.Stack.Main[0].Data)
	assert.Equal(t, []byte{0xaa, 0x01}, got.Op.Data)
	assert.Len(t, got.Stack.Main, 1)

	got.Stack.Main[0].Data[0] = 0xee
	steps := h.Steps()
	assert.Equal(t, []byte{0x01}, steps[0].Stack.Main[0].Data)

	h.Record(testOp(t, "0xaa02"), m.Snapshot(), "push", false, "")
	again, _ := h.At(0)
	assert.Equal(t, steps[0], again)
}
