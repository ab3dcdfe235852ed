package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFSYNC_BACKUPS_KEEP", "")
	t.Setenv("CONFSYNC_SOURCES_ON_UNREACHABLE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Backups.Keep)
	assert.Equal(t, PolicySkipValue, cfg.Sources.OnUnreachable)
	assert.Empty(t, cfg.Target.Dir)
}

func TestLoadUserFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backups]
keep = 10

[sources]
on_unreachable = "abort"

[target]
dir = "/opt/app"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Backups.Keep)
	assert.Equal(t, PolicyAbortValue, cfg.Sources.OnUnreachable)
	assert.Equal(t, "/opt/app", cfg.Target.Dir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backups]\nkeep = 10\n"), 0644))

	t.Setenv("CONFSYNC_BACKUPS_KEEP", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Backups.Keep)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.toml")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Backups.Keep)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative_keep", "[backups]\nkeep = -1\n"},
		{"unknown_policy", "[sources]\non_unreachable = \"retry\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
		})
	}
}
