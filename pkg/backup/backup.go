// Package backup snapshots target files before mutation into timestamped
// backup directories, and restores or prunes them. A backup always exists
// before any file of a non-empty plan is touched.
package backup

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	buildinfo "github.com/arthur-debert/confsync/internal/version"
	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/types"
)

const (
	// Prefix names backups created by this tool.
	Prefix = "confsync-"

	// LegacyPrefix names backups created before the rename; they are
	// still listed, restored, and pruned.
	LegacyPrefix = "backup-"

	// ManifestFileName is the record written inside every backup.
	ManifestFileName = "backup-manifest.json"

	// timestampLayout is the canonical encoding embedded in the
	// directory name.
	timestampLayout = "2006-01-02-150405"
)

// Manager creates, lists, restores, and prunes backups for one target tree.
type Manager struct {
	fs         types.FS
	targetRoot string
	backupsDir string
	now        func() time.Time
}

// NewManager creates a backup manager rooted at targetRoot. Backups live
// under targetRoot/backups.
func NewManager(fsys types.FS, targetRoot string) *Manager {
	return &Manager{
		fs:         fsys,
		targetRoot: targetRoot,
		backupsDir: filepath.Join(targetRoot, "backups"),
		now:        time.Now,
	}
}

// RestoreResult reports what a restore wrote back.
type RestoreResult struct {
	ID    string
	Files []string
}

// Create snapshots the current content of the given destination files
// into a new timestamped backup directory and writes its manifest. Files
// that do not exist yet, or live outside the target tree, are not
// captured. Any write failure removes the partial backup and returns a
// backup error, leaving the target tree untouched.
func (m *Manager) Create(files []string, categories []string) (types.BackupInfo, error) {
	logger := logging.GetLogger("backup")

	createdAt := m.now()
	id := Prefix + createdAt.Format(timestampLayout)
	backupPath := filepath.Join(m.backupsDir, id)

	if err := m.fs.MkdirAll(backupPath, 0755); err != nil {
		return types.BackupInfo{}, errors.Wrapf(err, errors.ErrBackupCreate,
			"cannot create backup directory %s", backupPath)
	}

	var captured []string
	for _, file := range files {
		rel, err := filepath.Rel(m.targetRoot, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			logger.Debug().Str("file", file).Msg("File outside target tree, not captured")
			continue
		}

		content, err := m.fs.ReadFile(file)
		if err != nil {
			// Destination does not exist yet, nothing to capture
			continue
		}

		dest := filepath.Join(backupPath, rel)
		if err := m.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			m.cleanup(backupPath)
			return types.BackupInfo{}, errors.Wrapf(err, errors.ErrBackupCreate,
				"cannot create backup subdirectory for %s", rel)
		}
		if err := m.fs.WriteFile(dest, content, 0644); err != nil {
			m.cleanup(backupPath)
			return types.BackupInfo{}, errors.Wrapf(err, errors.ErrBackupCreate,
				"cannot capture %s", rel)
		}
		captured = append(captured, filepath.ToSlash(rel))
	}

	manifest := types.BackupManifest{
		CreatedAt:   createdAt.Format(time.RFC3339),
		Categories:  categories,
		Files:       captured,
		ToolVersion: buildinfo.Version,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		m.cleanup(backupPath)
		return types.BackupInfo{}, errors.Wrap(err, errors.ErrBackupCreate,
			"cannot encode backup manifest")
	}
	if err := m.fs.WriteFile(filepath.Join(backupPath, ManifestFileName), append(data, '\n'), 0644); err != nil {
		m.cleanup(backupPath)
		return types.BackupInfo{}, errors.Wrap(err, errors.ErrBackupCreate,
			"cannot write backup manifest")
	}

	logger.Info().
		Str("id", id).
		Int("files", len(captured)).
		Strs("categories", categories).
		Msg("Backup created")

	return types.BackupInfo{
		ID:         id,
		Path:       backupPath,
		CreatedAt:  createdAt,
		Categories: categories,
		FileCount:  len(captured),
	}, nil
}

func (m *Manager) cleanup(path string) {
	if err := m.fs.RemoveAll(path); err != nil {
		logger := logging.GetLogger("backup")
		logger.Warn().
			Str("path", path).
			Err(err).
			Msg("Failed to remove partial backup")
	}
}

// List returns all backups, newest first.
func (m *Manager) List() ([]types.BackupInfo, error) {
	entries, err := m.fs.ReadDir(m.backupsDir)
	if err != nil {
		// No backups directory means no backups
		return nil, nil
	}

	var backups []types.BackupInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, Prefix) && !strings.HasPrefix(name, LegacyPrefix) {
			continue
		}

		info := types.BackupInfo{
			ID:   name,
			Path: filepath.Join(m.backupsDir, name),
		}
		info.CreatedAt, info.Legacy = m.decodeTimestamp(name, info.Path)

		if manifest, err := m.readManifest(info.Path); err == nil {
			info.Categories = manifest.Categories
			info.FileCount = len(manifest.Files)
		} else {
			files, _ := filesystem.ListFiles(m.fs, info.Path)
			info.FileCount = len(files)
		}

		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// decodeTimestamp normalizes the two historical encodings to one
// internal timestamp: the canonical name-embedded form is tried first,
// then the filesystem modification time of the backup directory.
func (m *Manager) decodeTimestamp(name, path string) (time.Time, bool) {
	encoded := strings.TrimPrefix(strings.TrimPrefix(name, Prefix), LegacyPrefix)
	if ts, err := time.ParseInLocation(timestampLayout, encoded, time.Local); err == nil {
		return ts, false
	}

	if info, err := m.fs.Stat(path); err == nil {
		return info.ModTime(), true
	}
	return time.Time{}, true
}

func (m *Manager) readManifest(backupPath string) (types.BackupManifest, error) {
	data, err := m.fs.ReadFile(filepath.Join(backupPath, ManifestFileName))
	if err != nil {
		return types.BackupManifest{}, err
	}
	var manifest types.BackupManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return types.BackupManifest{}, err
	}
	return manifest, nil
}

// Restore writes every captured file of the named backup back to its
// original destination. An empty id restores the most recent backup.
// Each file lands via a temp-then-rename write, so an interrupted
// restore never leaves a destination half-written.
func (m *Manager) Restore(id string) (*RestoreResult, error) {
	logger := logging.GetLogger("backup")

	backupPath, resolvedID, err := m.resolve(id)
	if err != nil {
		return nil, err
	}

	var files []string
	if manifest, err := m.readManifest(backupPath); err == nil {
		files = manifest.Files
	} else {
		// Legacy backup without a manifest: restore everything in it
		all, err := filesystem.ListFiles(m.fs, backupPath)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackupRestore,
				"cannot enumerate backup %s", resolvedID)
		}
		for _, rel := range all {
			if rel != ManifestFileName {
				files = append(files, rel)
			}
		}
	}

	result := &RestoreResult{ID: resolvedID}
	for _, rel := range files {
		content, err := m.fs.ReadFile(filepath.Join(backupPath, filepath.FromSlash(rel)))
		if err != nil {
			logger.Warn().Str("file", rel).Err(err).Msg("Captured file missing from backup")
			continue
		}

		dest := filepath.Join(m.targetRoot, filepath.FromSlash(rel))
		if err := filesystem.WriteFileAtomic(m.fs, dest, content, 0644); err != nil {
			return result, errors.Wrapf(err, errors.ErrBackupRestore,
				"cannot restore %s", rel)
		}
		result.Files = append(result.Files, rel)
	}

	logger.Info().
		Str("id", resolvedID).
		Int("files", len(result.Files)).
		Msg("Backup restored")
	return result, nil
}

func (m *Manager) resolve(id string) (string, string, error) {
	if id == "" {
		backups, err := m.List()
		if err != nil {
			return "", "", err
		}
		if len(backups) == 0 {
			return "", "", errors.New(errors.ErrBackupNotFound, "no backups available")
		}
		return backups[0].Path, backups[0].ID, nil
	}

	path := filepath.Join(m.backupsDir, id)
	if _, err := m.fs.Stat(path); err != nil {
		return "", "", errors.Newf(errors.ErrBackupNotFound, "backup not found: %s", id)
	}
	return path, id, nil
}

// Prune deletes all but the keep most recent backups and returns how
// many were removed. Both timestamp encodings sort correctly.
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, info := range backups[keep:] {
		if err := m.fs.RemoveAll(info.Path); err != nil {
			return deleted, errors.Wrapf(err, errors.ErrFileAccess,
				"cannot delete backup %s", info.ID)
		}
		deleted++
	}

	logger := logging.GetLogger("backup")
	logger.Info().
		Int("deleted", deleted).
		Int("kept", keep).
		Msg("Old backups pruned")
	return deleted, nil
}
