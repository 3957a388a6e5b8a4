package atomicfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aabtop/respire-go/internal/atomicfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")
	require.NoError(t, atomicfile.Write(path, []byte("hello")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteTolerateIdenticalExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, atomicfile.Write(path, []byte("same")))
	require.NoError(t, atomicfile.Write(path, []byte("same")))
}

func TestWriteRejectsDivergentExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, atomicfile.Write(path, []byte("first")))
	err := atomicfile.Write(path, []byte("second"))
	require.Error(t, err)
}

func TestWriteIfDifferentSkipsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	wrote, err := atomicfile.WriteIfDifferent(path, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = atomicfile.WriteIfDifferent(path, []byte("v1"))
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = atomicfile.WriteIfDifferent(path, []byte("v2"))
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestTouchCreatesAndPreservesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stamp")
	require.NoError(t, atomicfile.Touch(path))
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))
	require.NoError(t, atomicfile.Touch(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}
