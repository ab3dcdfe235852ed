package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvCacheDir, "")

	p, err := New()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home, p.Home())

	assert.Equal(t, filepath.Join(p.ConfigDir(), ConfigFileName), p.ConfigFilePath())
	assert.Equal(t, filepath.Join(p.CacheDir(), SourcesCacheDirName), p.SourcesCacheDir())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigDir, "/etc/confsync")
	t.Setenv(EnvCacheDir, "/var/cache/confsync")

	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/etc/confsync", p.ConfigDir())
	assert.Equal(t, "/var/cache/confsync", p.CacheDir())
	assert.Equal(t, "/etc/confsync/config.toml", p.ConfigFilePath())
}

func TestSourcesFilePathPrefersExisting(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	p, err := New()
	require.NoError(t, err)

	// No declaration file yet: default to sources.yaml
	assert.Equal(t, filepath.Join(dir, "sources.yaml"), p.SourcesFilePath())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources.json"), []byte("{}"), 0644))
	assert.Equal(t, filepath.Join(dir, "sources.json"), p.SourcesFilePath())

	// yaml outranks json when both exist
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources.yaml"), []byte(""), 0644))
	assert.Equal(t, filepath.Join(dir, "sources.yaml"), p.SourcesFilePath())
}
