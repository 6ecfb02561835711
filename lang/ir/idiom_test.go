package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeSkip(t *testing.T) {
	skip, ok := recognizeSkip([]*Node{NewAlter(3, 0)})
	require.True(t, ok)
	assert.Equal(t, Skip, skip.Kind)
	assert.Equal(t, 3, skip.Offset)
}

func TestRecognizeSkip_RejectsNonzeroAmount(t *testing.T) {
	_, ok := recognizeSkip([]*Node{NewAlter(3, 1)})
	assert.False(t, ok)
}

func TestRecognizeSkip_RejectsZeroOffset(t *testing.T) {
	_, ok := recognizeSkip([]*Node{NewAlter(0, 0)})
	assert.False(t, ok)
}

func TestRecognizeSkip_RejectsMultipleChildren(t *testing.T) {
	_, ok := recognizeSkip([]*Node{NewAlter(1, 0), NewAlter(1, 0)})
	assert.False(t, ok)
}

func TestRecognizeMultiply_DecrementCounter(t *testing.T) {
	// "[-]": single ALTER(0, -1).
	seq, ok := recognizeMultiply([]*Node{NewAlter(0, -1)})
	require.True(t, ok)
	require.Len(t, seq, 1)
	assert.Equal(t, Set, seq[0].Kind)
	assert.Equal(t, int8(0), seq[0].Amount)
}

func TestRecognizeMultiply_IncrementCounter(t *testing.T) {
	// "[+]": single ALTER(0, +1).
	seq, ok := recognizeMultiply([]*Node{NewAlter(0, 1)})
	require.True(t, ok)
	require.Len(t, seq, 1)
	assert.Equal(t, Set, seq[0].Kind)
	assert.Equal(t, int8(0), seq[0].Amount)
}

func TestRecognizeMultiply_ScenarioSix(t *testing.T) {
	// Body of ">+++++++[<+++++++++>-]<." is "<+++++++++>-", which coalesces
	// to ALTER(-1, 9), ALTER(1, -1).
	body := []*Node{NewAlter(-1, 9), NewAlter(1, -1)}
	seq, ok := recognizeMultiply(body)
	require.True(t, ok)
	require.Len(t, seq, 2)
	assert.Equal(t, Multiply, seq[0].Kind)
	assert.Equal(t, -1, seq[0].Offset)
	assert.Equal(t, int8(9), seq[0].Amount)
	assert.Equal(t, Set, seq[1].Kind)
	assert.Equal(t, int8(0), seq[1].Amount)
}

func TestRecognizeMultiply_RejectsNetOffsetNonzero(t *testing.T) {
	_, ok := recognizeMultiply([]*Node{NewAlter(1, -1)})
	assert.False(t, ok)
}

func TestRecognizeMultiply_RejectsCounterDeltaOtherThanOne(t *testing.T) {
	_, ok := recognizeMultiply([]*Node{NewAlter(0, 2)})
	assert.False(t, ok)
}

func TestRecognizeMultiply_RejectsNonAlterChild(t *testing.T) {
	_, ok := recognizeMultiply([]*Node{{Kind: Out}})
	assert.False(t, ok)
}

func TestRecognizeMultiply_DropsZeroAmountOffsets(t *testing.T) {
	// Net amount at some intermediate offset cancels to zero across the
	// body; it must not produce a spurious MULTIPLY(0 amount).
	body := []*Node{NewAlter(2, 5), NewAlter(0, -5), NewAlter(-2, -1)}
	seq, ok := recognizeMultiply(body)
	require.True(t, ok)
	require.Len(t, seq, 1)
	assert.Equal(t, Set, seq[0].Kind)
}
