package stackeval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EncodeToBytes 函数接受任意数据类型并返回其 gob 编码的 []byte 表示。
// DecodeFromBytes 函数接受一个 gob 编码的 []byte 和一个指向要解码到的数据结构的指针，然后将数据解码到该结构中。
func TestCodeAndByte(t *testing.T) {
	rec := VariableRecord{Name: "pk", Value: []byte{0x02, 0x03}, Updated: 1700000000}

	encoded, err := EncodeToBytes(rec)
	require.NoError(t, err)

	var decoded VariableRecord
	require.NoError(t, DecodeFromBytes(encoded, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		text    string
		want    []byte
		wantErr bool
	}{
		{"0101", []byte{0x01, 0x01}, false},
		{"0x76a9", []byte{0x76, 0xa9}, false},
		{" 01 01\n93 ", []byte{0x01, 0x01, 0x93}, false},
		{"", []byte{}, false},
		{"0g", nil, true},
		{"123", nil, true},
	}

	for _, tc := range tests {
		got, err := DecodeHex(tc.text)
		if tc.wantErr {
			assert.True(t, errors.Is(err, ErrParse), "text %q", tc.text)
			continue
		}
		require.NoError(t, err, "text %q", tc.text)
		assert.Equal(t, tc.want, got, "text %q", tc.text)
	}
}

func TestIsHex(t *testing.T) {
	assert.True(t, isHex("0101 93"))
	assert.True(t, isHex("12 34"))
	assert.False(t, isHex(""))
	assert.False(t, isHex("OP_1 OP_ADD"))
	assert.False(t, isHex("1"))
	// 单个词长度为奇数，即使拼接后是偶数
	assert.False(t, isHex("1 2"))
	assert.False(t, isHex("012 3"))
}

func TestCloneBytes(t *testing.T) {
	assert.Nil(t, cloneBytes(nil))

	src := []byte{1, 2}
	c := cloneBytes(src)
	c[0] = 9
	assert.Equal(t, byte(1), src[0])
}
