// Package version computes the fingerprint of a resolved source tree and
// persists the stamp recording what was last installed. Comparing the two
// detects drift without knowing which specific files changed.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"time"

	buildinfo "github.com/arthur-debert/confsync/internal/version"
	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/types"
)

// StampFileName is the stamp file written into the target tree after a
// successful apply.
const StampFileName = ".confsync-version.json"

// Tracker persists and compares version stamps for one target tree.
type Tracker struct {
	fs        types.FS
	stampPath string
}

// NewTracker creates a tracker for the given target tree.
func NewTracker(fsys types.FS, targetRoot string) *Tracker {
	return &Tracker{
		fs:        fsys,
		stampPath: filepath.Join(targetRoot, StampFileName),
	}
}

// Fingerprint hashes the whole resolved source tree: for every regular
// file, sorted by relative path, the pair (relative path, content) feeds
// one running hash. Enumeration order of categories or files cannot
// change the result. Hidden files are excluded.
func Fingerprint(fsys types.FS, sourceRoot string) (string, error) {
	relPaths, err := filesystem.ListFiles(fsys, sourceRoot)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess,
			"cannot enumerate source tree %s", sourceRoot)
	}

	hasher := sha256.New()
	for _, rel := range relPaths {
		if isHidden(rel) {
			continue
		}
		content, err := fsys.ReadFile(filepath.Join(sourceRoot, filepath.FromSlash(rel)))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", rel)
		}
		hasher.Write([]byte(rel))
		hasher.Write(content)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func isHidden(rel string) bool {
	name := path.Base(rel)
	return len(name) > 0 && name[0] == '.'
}

// Installed reads the persisted stamp. A missing or unreadable stamp
// reads as the zero stamp, which always signals an update.
func (t *Tracker) Installed() types.Stamp {
	data, err := t.fs.ReadFile(t.stampPath)
	if err != nil {
		return types.Stamp{}
	}

	var stamp types.Stamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		logger := logging.GetLogger("version")
		logger.Warn().
			Str("path", t.stampPath).
			Err(err).
			Msg("Stamp file is corrupt, treating as never installed")
		return types.Stamp{}
	}
	return stamp
}

// WriteStamp persists the stamp for a successful apply.
func (t *Tracker) WriteStamp(fingerprint string, categories []string) error {
	stamp := types.Stamp{
		ToolVersion: buildinfo.Version,
		Fingerprint: fingerprint,
		InstalledAt: time.Now().Format(time.RFC3339),
		Categories:  categories,
	}

	data, err := json.MarshalIndent(stamp, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrStampWrite, "cannot encode version stamp")
	}
	data = append(data, '\n')

	if err := filesystem.WriteFileAtomic(t.fs, t.stampPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrStampWrite, "cannot write version stamp")
	}
	return nil
}

// HasUpdates recomputes the fingerprint of the currently resolved source
// tree and compares it against the persisted stamp. Any difference, or a
// missing stamp, signals an update is available.
func (t *Tracker) HasUpdates(sourceRoot string) (bool, error) {
	installed := t.Installed()
	if installed.IsZero() {
		return true, nil
	}

	current, err := Fingerprint(t.fs, sourceRoot)
	if err != nil {
		return false, err
	}
	return current != installed.Fingerprint, nil
}

// Exists reports whether a stamp has been written for this target tree.
func (t *Tracker) Exists() bool {
	_, err := t.fs.Stat(t.stampPath)
	return !stderrors.Is(err, fs.ErrNotExist) && err == nil
}
