package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsuresZero(t *testing.T) {
	assert.True(t, EnsuresZero(NewLoop(nil)))
	assert.True(t, EnsuresZero(NewSkip(1)))
	assert.True(t, EnsuresZero(NewSet(0, 0)))
	assert.False(t, EnsuresZero(NewSet(0, 1)))
	assert.False(t, EnsuresZero(NewAlter(0, 0)))
}

func TestEnsuresNonzero(t *testing.T) {
	assert.True(t, EnsuresNonzero(NewSet(0, 3)))
	assert.False(t, EnsuresNonzero(NewSet(0, 0)))
	assert.False(t, EnsuresNonzero(NewAlter(0, 3)))
}

func TestWritesCell(t *testing.T) {
	assert.True(t, WritesCell(NewAlter(0, 1)))
	assert.False(t, WritesCell(NewAlter(1, 0)))
	assert.True(t, WritesCell(NewLoop(nil)))
	assert.True(t, WritesCell(NewMultiply(1, 1)))
	assert.True(t, WritesCell(&Node{Kind: In}))
	assert.True(t, WritesCell(NewSet(0, 0)))
	assert.False(t, WritesCell(&Node{Kind: Out}))
}

func TestMovesTape(t *testing.T) {
	assert.True(t, MovesTape(NewSkip(1)))
	assert.True(t, MovesTape(NewAlter(1, 0)))
	assert.False(t, MovesTape(NewAlter(0, 5)))
	assert.False(t, MovesTape(NewSet(0, 0)))
}

func TestGetFinalOffset(t *testing.T) {
	off, ok := GetFinalOffset(NewAlter(3, 1))
	require.True(t, ok)
	assert.Equal(t, 3, off)

	_, ok = GetFinalOffset(NewSkip(1))
	assert.False(t, ok)

	off, ok = GetFinalOffset(NewSet(0, 5))
	require.True(t, ok)
	assert.Equal(t, 0, off)
}

func TestGetMinMaxOffset(t *testing.T) {
	lo, ok := GetMinOffset(NewAlter(-3, 1))
	require.True(t, ok)
	assert.Equal(t, -3, lo)

	hi, ok := GetMaxOffset(NewAlter(-3, 1))
	require.True(t, ok)
	assert.Equal(t, 0, hi)

	lo, ok = GetMinOffset(NewSet(4, 1))
	require.True(t, ok)
	assert.Equal(t, 0, lo)

	hi, ok = GetMaxOffset(NewSet(4, 1))
	require.True(t, ok)
	assert.Equal(t, 4, hi)

	_, ok = GetMinOffset(NewSkip(1))
	assert.False(t, ok)
}

func TestGetLoopInfo_SimpleBalancedLoop(t *testing.T) {
	// "[-]" body before idiom recognition: a pure in-place decrement, no
	// pointer movement, so it touches only offset 0 and never looks
	// uncertain in either direction.
	loop := NewLoop([]*Node{NewAlter(0, -1)})
	info := GetLoopInfo(loop)
	assert.True(t, info.Calculated)
	assert.False(t, info.UncertainForward)
	assert.False(t, info.UncertainBackward)
	assert.Equal(t, 0, info.OffsetLower)
	assert.Equal(t, 0, info.OffsetUpper)
}

func TestGetLoopInfo_SkipMarksUncertain(t *testing.T) {
	loop := NewLoop([]*Node{NewSkip(1)})
	info := GetLoopInfo(loop)
	assert.True(t, info.UncertainForward)
	assert.False(t, info.UncertainBackward)
}

func TestGetLoopInfo_IsMemoized(t *testing.T) {
	loop := NewLoop([]*Node{NewAlter(0, -1)})
	first := GetLoopInfo(loop)
	loop.Children = append(loop.Children, NewAlter(5, 0))
	second := GetLoopInfo(loop)
	assert.Equal(t, first, second)

	loop.ResetLoopInfo()
	third := GetLoopInfo(loop)
	assert.NotEqual(t, first, third)
}

func TestGetLoopInfo_PanicsOnNonLoop(t *testing.T) {
	assert.Panics(t, func() { GetLoopInfo(NewAlter(0, 0)) })
}

func TestOffsetMightBeAccessed_FindsWrite(t *testing.T) {
	block := []*Node{NewAlter(2, 5)}
	acc := OffsetMightBeAccessed(block, 0, 2)
	assert.Equal(t, 0, acc.Index)
	assert.True(t, acc.Write)
	assert.False(t, acc.Uncertain)
}

func TestOffsetMightBeAccessed_SkipIsUncertain(t *testing.T) {
	block := []*Node{NewSkip(1)}
	acc := OffsetMightBeAccessed(block, 0, 0)
	assert.True(t, acc.Uncertain)
}

func TestOffsetMightBeAccessed_TransparentOneShotLoop(t *testing.T) {
	// A one-shot loop that touches only its own cell (offset 0) and leaves
	// the pointer where it was is transparent to a scan for offset 1, which
	// should see straight through to the OUT at offset 1 that follows it.
	loop := NewLoop([]*Node{NewSet(0, 0)})
	block := []*Node{loop, NewAlter(1, 0), &Node{Kind: Out}}
	acc := OffsetMightBeAccessed(block, 0, 1)
	assert.Equal(t, 2, acc.Index)
	assert.True(t, acc.Read)
	assert.False(t, acc.Uncertain)
}

func TestOffsetMightBeAccessed_RunsOffEnd(t *testing.T) {
	block := []*Node{NewAlter(1, 0)}
	acc := OffsetMightBeAccessed(block, 0, 9)
	assert.Equal(t, len(block), acc.Index)
	assert.False(t, acc.Uncertain)
}
