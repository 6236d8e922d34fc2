// Package testutils provides helpers for tests.
package testutils

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

// GoldenPath returns the golden file path for the current test.
func GoldenPath(t *testing.T) string {
	t.Helper()

	return filepath.Join("testdata", "golden", t.Name())
}

// LoadWithUpdateFromGolden loads the golden file content for the current
// test, updating it first with got when the -update flag is set.
func LoadWithUpdateFromGolden(t *testing.T, got string) string {
	t.Helper()

	goldenPath := GoldenPath(t)
	if *update {
		t.Logf("updating golden file %s", goldenPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0750), "Cannot create golden directory")
		require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0600), "Cannot write golden file")
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "Cannot load golden file")
	return string(want)
}
