package sources

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/types"
)

// UnreachablePolicy decides what a failed materialization does to the
// rest of the run.
type UnreachablePolicy string

const (
	// PolicySkip drops the failed source and proceeds with the others.
	PolicySkip UnreachablePolicy = "skip"
	// PolicyAbort fails the whole run on the first unreachable source.
	PolicyAbort UnreachablePolicy = "abort"
)

// Resolved pairs a source with the local directory it materialized to.
type Resolved struct {
	Source Source
	Dir    string
}

// Manager materializes declared sources into a cache directory.
type Manager struct {
	fs       types.FS
	cacheDir string
	policy   UnreachablePolicy
}

// NewManager creates a source manager caching under cacheDir.
func NewManager(fsys types.FS, cacheDir string, policy UnreachablePolicy) *Manager {
	if policy == "" {
		policy = PolicySkip
	}
	return &Manager{fs: fsys, cacheDir: cacheDir, policy: policy}
}

// Materialize fetches one source and returns the local directory holding
// its configuration tree. Fetching blocks until done; cancellation
// happens before this call or not at all.
func (m *Manager) Materialize(src Source) (string, error) {
	logger := logging.GetLogger("sources")
	done := logging.LogOperationStart(logger, "materialize-"+src.Name)
	defer done()

	if err := m.fs.MkdirAll(m.cacheDir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate,
			"cannot create cache directory %s", m.cacheDir)
	}

	switch src.Type {
	case TypeLocal:
		return m.materializeLocal(src)
	case TypeGit:
		return m.materializeGit(src)
	case TypeZip:
		return m.materializeZip(src)
	}
	return "", errors.Newf(errors.ErrSourceInvalid, "unknown source type %q", src.Type)
}

// MaterializeAll fetches every source. Under the skip policy an
// unreachable source is dropped with a warning; under abort the first
// failure fails the call.
func (m *Manager) MaterializeAll(srcs []Source) ([]Resolved, []string, error) {
	logger := logging.GetLogger("sources")

	var resolved []Resolved
	var warnings []string
	for _, src := range srcs {
		dir, err := m.Materialize(src)
		if err != nil {
			if m.policy == PolicyAbort {
				return nil, nil, err
			}
			logger.Warn().Str("source", src.Name).Err(err).Msg("Source unreachable, skipped")
			warnings = append(warnings, err.Error())
			continue
		}
		resolved = append(resolved, Resolved{Source: src, Dir: dir})
	}
	return resolved, warnings, nil
}

func (m *Manager) materializeLocal(src Source) (string, error) {
	sourcePath := expandHome(src.Path)

	info, err := m.fs.Stat(sourcePath)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.Newf(errors.ErrSourceUnreachable,
				"source %s: local path not found: %s", src.Name, sourcePath)
		}
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot read %s", src.Name, sourcePath)
	}
	if !info.IsDir() {
		return "", errors.Newf(errors.ErrSourceUnreachable,
			"source %s: path is not a directory: %s", src.Name, sourcePath)
	}

	dest := filepath.Join(m.cacheDir, src.Name)
	if err := m.fs.RemoveAll(dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot refresh cache", src.Name)
	}
	if err := copyTree(m.fs, sourcePath, dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot copy into cache", src.Name)
	}
	return dest, nil
}

func copyTree(fsys types.FS, from, to string) error {
	files, err := filesystem.ListFiles(fsys, from)
	if err != nil {
		return err
	}
	for _, rel := range files {
		data, err := fsys.ReadFile(filepath.Join(from, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		dest := filepath.Join(to, filepath.FromSlash(rel))
		if err := fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := fsys.WriteFile(dest, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
