// Package testutil provides shared helpers for tests that build file
// trees on a types.FS.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/confsync/pkg/types"
	"github.com/stretchr/testify/require"
)

// CreateDir creates a directory tree, failing the test on error.
func CreateDir(t *testing.T, fsys types.FS, path string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(path, 0755))
}

// CreateFile writes a file, creating parent directories as needed.
func CreateFile(t *testing.T, fsys types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
}

// ReadFile reads a file, failing the test on error.
func ReadFile(t *testing.T, fsys types.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether the path can be stat'd.
func Exists(fsys types.FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}
