package filesystem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	fs := NewMemory()
	require.NoError(t, fs.MkdirAll("/src/hooks/nested", 0755))
	require.NoError(t, fs.WriteFile("/src/b.txt", []byte("b"), 0644))
	require.NoError(t, fs.WriteFile("/src/a.txt", []byte("a"), 0644))
	require.NoError(t, fs.WriteFile("/src/hooks/nested/run.sh", []byte("#!/bin/sh"), 0644))

	files, err := ListFiles(fs, "/src")
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt", "hooks/nested/run.sh"}, files)
}

func TestListFilesMissingRoot(t *testing.T) {
	fs := NewMemory()
	_, err := ListFiles(fs, "/does-not-exist")
	require.Error(t, err)
}
