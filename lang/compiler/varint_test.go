package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZigzagRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, -1, 63, -64, 64, -65, 1000, -1000, 1 << 20, -(1 << 20)} {
		got := zigzagDecode(zigzagEncode(v))
		assert.Equal(t, v, got, "zigzag round-trip for %d", v)
	}
}

func TestAppendAndReadIsize(t *testing.T) {
	for _, v := range []int{0, 1, -1, 127, -128, 300, -300, 1 << 16, -(1 << 16)} {
		buf := appendIsize(nil, v)
		got, pc := readIsize(buf, 0)
		assert.Equal(t, v, got, "isize round-trip for %d", v)
		assert.Equal(t, len(buf), pc)
	}
}

func TestAppendIsize_SmallValuesFitOneByte(t *testing.T) {
	// Zigzag maps [-64, 63] onto [0, 127], which fits the 7-bit varint in a
	// single byte with no continuation.
	for _, v := range []int{0, 1, -1, 63, -64} {
		buf := appendIsize(nil, v)
		assert.Len(t, buf, 1, "value %d should fit one byte", v)
	}
}

func TestAppendCellRoundTrip(t *testing.T) {
	for _, v := range []int8{0, 1, -1, 127, -128} {
		buf := appendCell(nil, v)
		got, pc := readCell(buf, 0)
		assert.Equal(t, v, got)
		assert.Equal(t, 1, pc)
	}
}

func TestReadVarint_MultiByteContinuation(t *testing.T) {
	buf := appendVarint(nil, 300)
	assert.Len(t, buf, 2, "300 should need two bytes")
	v, pc := readVarint(buf, 0)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, pc)
}
