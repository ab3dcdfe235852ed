package version

import (
	"testing"

	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSource(t *testing.T, fs types.FS) {
	t.Helper()
	require.NoError(t, fs.MkdirAll("/src/core", 0755))
	require.NoError(t, fs.WriteFile("/src/manifest.json", []byte(`{"categories": []}`), 0644))
	require.NoError(t, fs.WriteFile("/src/core/settings.json", []byte(`{"model": "smart"}`), 0644))
}

func TestFingerprintStable(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSource(t, fs)

	a, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	b, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintIndependentOfCreationOrder(t *testing.T) {
	// Two trees with the same files created in different order
	fsA := filesystem.NewMemory()
	require.NoError(t, fsA.MkdirAll("/src/core", 0755))
	require.NoError(t, fsA.WriteFile("/src/a.txt", []byte("a"), 0644))
	require.NoError(t, fsA.WriteFile("/src/core/b.txt", []byte("b"), 0644))

	fsB := filesystem.NewMemory()
	require.NoError(t, fsB.MkdirAll("/src/core", 0755))
	require.NoError(t, fsB.WriteFile("/src/core/b.txt", []byte("b"), 0644))
	require.NoError(t, fsB.WriteFile("/src/a.txt", []byte("a"), 0644))

	a, err := Fingerprint(fsA, "/src")
	require.NoError(t, err)
	b, err := Fingerprint(fsB, "/src")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSource(t, fs)

	before, err := Fingerprint(fs, "/src")
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile("/src/core/settings.json", []byte(`{"model": "fast"}`), 0644))
	after, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestFingerprintChangesWithPath(t *testing.T) {
	fsA := filesystem.NewMemory()
	require.NoError(t, fsA.MkdirAll("/src", 0755))
	require.NoError(t, fsA.WriteFile("/src/a.txt", []byte("same"), 0644))

	fsB := filesystem.NewMemory()
	require.NoError(t, fsB.MkdirAll("/src", 0755))
	require.NoError(t, fsB.WriteFile("/src/b.txt", []byte("same"), 0644))

	a, err := Fingerprint(fsA, "/src")
	require.NoError(t, err)
	b, err := Fingerprint(fsB, "/src")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "relative path feeds the hash, not just content")
}

func TestFingerprintIgnoresHiddenFiles(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSource(t, fs)

	before, err := Fingerprint(fs, "/src")
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile("/src/.DS_Store", []byte("junk"), 0644))
	after, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStampRoundTrip(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSource(t, fs)
	require.NoError(t, fs.MkdirAll("/home/user/.config/app", 0755))

	tracker := NewTracker(fs, "/home/user/.config/app")
	assert.True(t, tracker.Installed().IsZero())
	assert.False(t, tracker.Exists())

	fp, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	require.NoError(t, tracker.WriteStamp(fp, []string{"core"}))

	stamp := tracker.Installed()
	assert.Equal(t, fp, stamp.Fingerprint)
	assert.Equal(t, []string{"core"}, stamp.Categories)
	assert.NotEmpty(t, stamp.InstalledAt)
	assert.True(t, tracker.Exists())
}

func TestHasUpdates(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSource(t, fs)
	require.NoError(t, fs.MkdirAll("/home/user/.config/app", 0755))

	tracker := NewTracker(fs, "/home/user/.config/app")

	// Never installed: always an update
	updates, err := tracker.HasUpdates("/src")
	require.NoError(t, err)
	assert.True(t, updates)

	fp, err := Fingerprint(fs, "/src")
	require.NoError(t, err)
	require.NoError(t, tracker.WriteStamp(fp, []string{"core"}))

	updates, err = tracker.HasUpdates("/src")
	require.NoError(t, err)
	assert.False(t, updates)

	// Source drift flips the check
	require.NoError(t, fs.WriteFile("/src/core/settings.json", []byte(`{"model": "fast"}`), 0644))
	updates, err = tracker.HasUpdates("/src")
	require.NoError(t, err)
	assert.True(t, updates)
}

func TestInstalledCorruptStamp(t *testing.T) {
	fs := filesystem.NewMemory()
	require.NoError(t, fs.MkdirAll("/home/user/.config/app", 0755))
	require.NoError(t, fs.WriteFile("/home/user/.config/app/"+StampFileName, []byte("{broken"), 0644))

	tracker := NewTracker(fs, "/home/user/.config/app")
	assert.True(t, tracker.Installed().IsZero())
}
