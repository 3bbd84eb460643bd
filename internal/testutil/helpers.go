package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateDummyFile creates a file with the given content, ensuring parent
// directories exist. It uses require assertions for test setup.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	err := os.MkdirAll(filepath.Dir(fullPath), 0o755)
	require.NoError(t, err, "Failed to create directory for dummy file %s", fullPath)
	err = os.WriteFile(fullPath, []byte(content), 0o644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating
// parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	err := os.MkdirAll(filepath.Clean(path), 0o755)
	require.NoError(t, err, "Failed to create dummy directory %s", path)
}
