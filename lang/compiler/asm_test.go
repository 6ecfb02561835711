package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/bfvm/lang/ir"
)

func TestDisassemble_AddressPrefixedLines(t *testing.T) {
	root := ir.NewOnce([]*ir.Node{ir.NewSet(0, 5)})
	prog := Flatten(root)
	text := Disassemble(prog)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 2) // SET then DIE
	assert.Equal(t, "00000000: SET +5", lines[0])
	assert.Equal(t, "00000002: DIE", lines[1])
}

func TestAssemble_UnknownOpcode(t *testing.T) {
	_, err := Assemble("00000000: BOGUS\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opcode")
}

func TestAssemble_IgnoresCommentsAndBlankLines(t *testing.T) {
	prog, err := Assemble("; a comment\n\n00000000: SET +5\n00000002: DIE\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(SET), 5, byte(DIE)}, prog.Code)
}

func TestAssemble_WorksWithoutAddressPrefix(t *testing.T) {
	prog, err := Assemble("SET +5\nDIE\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(SET), 5, byte(DIE)}, prog.Code)
}

func TestAssemble_BadJumpTarget(t *testing.T) {
	_, err := Assemble("JUMPIFZERO +3 (zzz)\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad jump target")
}

func TestLooksLikeAddr(t *testing.T) {
	assert.True(t, looksLikeAddr("00000000"))
	assert.True(t, looksLikeAddr("1a2b"))
	assert.False(t, looksLikeAddr("SET"))
}
