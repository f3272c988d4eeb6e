package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testData := []byte("hello world")

	require.NoError(t, WriteFileAtomic(testFile, testData, 0644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	require.Equal(t, testData, data)

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.Equal(t, "test.txt", entry.Name())
	}
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")

	require.NoError(t, WriteFileAtomic(testFile, []byte("initial"), 0644))

	newData := []byte("updated content")
	require.NoError(t, WriteFileAtomic(testFile, newData, 0644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	require.Equal(t, newData, data)
}

func TestWriteFileAtomicInvalidDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic("/nonexistent/dir/test.txt", []byte("data"), 0644)
	require.Error(t, err)
}
