package filesystem

import (
	"path/filepath"
	"sort"

	"github.com/arthur-debert/confsync/pkg/types"
)

// ListFiles walks root recursively and returns the relative paths of all
// regular files, sorted for deterministic enumeration.
func ListFiles(fsys types.FS, root string) ([]string, error) {
	var files []string

	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			rel, err := filepath.Rel(root, full)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
