package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte{1, 2, 3}, 0644))

	dest := filepath.Join(dir, "x", "y", "dest.bin")
	require.NoError(t, CopyFile(src, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestWriteFileAtomicLeavesNoTempOnError(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	err := WriteFileAtomic(target, func(f *os.File) error {
		_, _ = f.WriteString("partial")
		return errors.New("boom")
	})
	require.Error(t, err)
	_, statErr := os.Stat(target)
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomicBytesOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteFileAtomicBytes(target, []byte("one")))
	require.NoError(t, WriteFileAtomicBytes(target, []byte("two")))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}
