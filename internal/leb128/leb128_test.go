package leb128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInt32(t *testing.T) {
	for _, c := range []struct {
		input    int32
		expected []byte
	}{
		{input: -624485, expected: []byte{0x9b, 0xf1, 0x59}},
		{input: -4, expected: []byte{0x7c}},
		{input: -1, expected: []byte{0x7f}},
		{input: 0, expected: []byte{0x00}},
		{input: 1, expected: []byte{0x01}},
		{input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
		{input: math.MaxInt32, expected: []byte{0xff, 0xff, 0xff, 0xff, 0x7}},
	} {
		require.Equal(t, c.expected, EncodeInt32(c.input))
		decoded, n, err := LoadInt32(c.expected)
		require.NoError(t, err)
		require.Equal(t, c.input, decoded)
		require.Equal(t, uint64(len(c.expected)), n)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	v := int64(math.MaxInt64)
	enc := EncodeInt64(v)
	decoded, _, err := LoadInt64(enc)
	require.NoError(t, err)
	require.Equal(t, v, decoded)
}

func TestLoadUint32(t *testing.T) {
	enc := EncodeUint32(300)
	decoded, n, err := LoadUint32(enc)
	require.NoError(t, err)
	require.Equal(t, uint32(300), decoded)
	require.Equal(t, uint64(len(enc)), n)
}

func TestLoadUint32TruncatedBuffer(t *testing.T) {
	_, _, err := LoadUint32([]byte{0x80})
	require.Error(t, err)
}
