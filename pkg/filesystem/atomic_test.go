package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := NewMemory()

	require.NoError(t, WriteFileAtomic(fs, "/target/sub/file.txt", []byte("content"), 0644))

	data, err := fs.ReadFile("/target/sub/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	// No temp file left behind
	_, err = fs.Stat("/target/sub/file.txt.tmp")
	assert.Error(t, err)
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	fs := NewMemory()
	require.NoError(t, fs.MkdirAll("/target", 0755))
	require.NoError(t, fs.WriteFile("/target/file.txt", []byte("old"), 0644))

	require.NoError(t, WriteFileAtomic(fs, "/target/file.txt", []byte("new"), 0644))

	data, err := fs.ReadFile("/target/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
