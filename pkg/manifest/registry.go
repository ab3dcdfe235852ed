// Package manifest loads and validates the install manifest and resolves
// category file lists, including discover-type categories whose files are
// enumerated from the source tree at plan time.
package manifest

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/types"
)

// FileName is the manifest file expected at the root of a resolved source.
const FileName = "manifest.json"

// SettingsFileName is the reserved per-category settings document, the
// only file a merge flag is legal on.
const SettingsFileName = "settings.json"

// Registry holds a validated manifest bound to a resolved source root.
type Registry struct {
	manifest   types.Manifest
	sourceRoot string
	fs         types.FS
}

// Load reads and validates the manifest at the root of a resolved source
// tree. Validation failures abort before any plan is computed.
func Load(fsys types.FS, sourceRoot string) (*Registry, error) {
	logger := logging.GetLogger("manifest")

	manifestPath := filepath.Join(sourceRoot, FileName)
	data, err := fsys.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestLoad,
			"manifest not found at %s", manifestPath)
	}

	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestParse, "manifest is not valid JSON")
	}

	if err := validate(&m); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("sourceRoot", sourceRoot).
		Int("categories", len(m.Categories)).
		Msg("Manifest loaded")

	return &Registry{manifest: m, sourceRoot: sourceRoot, fs: fsys}, nil
}

func validate(m *types.Manifest) error {
	if len(m.Categories) == 0 {
		return errors.New(errors.ErrManifestInvalid, "manifest declares no categories")
	}

	seen := make(map[string]bool)
	for _, cat := range m.Categories {
		if cat.Name == "" {
			return errors.New(errors.ErrManifestInvalid, "category missing required field: name")
		}
		if seen[cat.Name] {
			return errors.Newf(errors.ErrManifestInvalid, "duplicate category name: %s", cat.Name)
		}
		seen[cat.Name] = true

		if cat.TargetDir == "" {
			return errors.Newf(errors.ErrManifestInvalid,
				"category %s missing required field: target_dir", cat.Name)
		}
		if !cat.InstallType.IsValid() {
			return errors.Newf(errors.ErrManifestInvalid,
				"category %s has unrecognized install_type: %q", cat.Name, cat.InstallType)
		}
		if len(cat.Files) == 0 && cat.InstallType != types.InstallTypeDiscover {
			return errors.Newf(errors.ErrManifestInvalid,
				"category %s declares no files", cat.Name)
		}

		mergeCount := 0
		for _, entry := range cat.Files {
			if entry.Src == "" || entry.Dest == "" {
				return errors.Newf(errors.ErrManifestInvalid,
					"category %s has a file entry missing src or dest", cat.Name)
			}
			if entry.Merge {
				mergeCount++
				if path.Base(entry.Dest) != SettingsFileName {
					return errors.Newf(errors.ErrManifestInvalid,
						"category %s flags %s as mergeable, only %s may be merged",
						cat.Name, entry.Dest, SettingsFileName)
				}
			}
		}
		if mergeCount > 1 {
			return errors.Newf(errors.ErrManifestInvalid,
				"category %s flags more than one file as mergeable", cat.Name)
		}
	}

	return nil
}

// Manifest returns the validated manifest.
func (r *Registry) Manifest() types.Manifest {
	return r.manifest
}

// SourceRoot returns the resolved source tree the registry is bound to.
func (r *Registry) SourceRoot() string {
	return r.sourceRoot
}

// Categories returns all categories in declaration order.
func (r *Registry) Categories() []types.Category {
	return r.manifest.Categories
}

// Get returns the named category, or nil if not declared.
func (r *Registry) Get(name string) *types.Category {
	return r.manifest.Category(name)
}

// Select returns the named categories in manifest declaration order,
// silently dropping names the manifest does not declare.
func (r *Registry) Select(names []string) []types.Category {
	if len(names) == 0 {
		return r.manifest.Categories
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var selected []types.Category
	for _, cat := range r.manifest.Categories {
		if wanted[cat.Name] {
			selected = append(selected, cat)
		}
	}
	return selected
}

// ResolveFiles returns the effective file list for a category. Static
// lists pass through; discover categories enumerate every file under
// the category's source subtree, marking shell scripts executable.
func (r *Registry) ResolveFiles(cat types.Category) ([]types.FileEntry, error) {
	if cat.InstallType != types.InstallTypeDiscover {
		return cat.Files, nil
	}

	categoryRoot := filepath.Join(r.sourceRoot, cat.Name)
	if _, err := r.fs.Stat(categoryRoot); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot enumerate category %s", cat.Name)
	}

	relPaths, err := filesystem.ListFiles(r.fs, categoryRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot enumerate category %s", cat.Name)
	}

	entries := make([]types.FileEntry, 0, len(relPaths))
	for _, rel := range relPaths {
		entries = append(entries, types.FileEntry{
			Src:        path.Join(cat.Name, rel),
			Dest:       rel,
			Executable: strings.HasSuffix(rel, ".sh"),
		})
	}
	return entries, nil
}
