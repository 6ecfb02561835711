package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyPathReadsStdinInteractively(t *testing.T) {
	stdin := strings.NewReader("+")
	src, closer, err := Open("", stdin, nil)
	require.NoError(t, err)
	defer closer.Close()

	assert.True(t, src.Interactive)
	b, err := src.R.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('+'), b)
}

func TestOpen_FilePathReadsNonInteractively(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bf")
	require.NoError(t, os.WriteFile(path, []byte("+-"), 0o644))

	src, closer, err := Open(path, nil, nil)
	require.NoError(t, err)
	defer closer.Close()

	assert.False(t, src.Interactive)
	b, err := src.R.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('+'), b)
}

func TestOpen_MissingFileReturnsError(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "nope.bf"), nil, nil)
	assert.Error(t, err)
}
