package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covmark/covmark/internal/fileutils"
)

func TestAtomicWrite(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing string

		data string
	}{
		"New file":             {data: "content"},
		"Overwrites existing":  {existing: "old", data: "new"},
		"Empty data":           {data: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "file.txt")
			if tc.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0600), "Setup: could not write pre-existing file")
			}

			require.NoError(t, fileutils.AtomicWrite(path, []byte(tc.data)), "AtomicWrite should succeed")

			got, err := os.ReadFile(path)
			require.NoError(t, err, "Written file should be readable")
			assert.Equal(t, tc.data, string(got), "File content should match what was written")

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "No temporary files should be left behind")
		})
	}
}

func TestAtomicWriteMissingDirFails(t *testing.T) {
	t.Parallel()

	err := fileutils.AtomicWrite(filepath.Join(t.TempDir(), "missing", "file.txt"), []byte("x"))
	require.Error(t, err, "AtomicWrite should fail when the parent directory does not exist")
}

func TestAtomicWriteInDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	require.NoError(t, fileutils.AtomicWriteInDir(path, []byte("x")), "AtomicWriteInDir should create parents")
	assert.FileExists(t, path)
}
