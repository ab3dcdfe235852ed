package filesystem

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/confsync/pkg/types"
)

// WriteFileAtomic writes data to a temp file in the destination's
// directory and renames it into place, so the destination is never
// observed half-written even if the process dies mid-write.
func WriteFileAtomic(fsys types.FS, path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := fsys.Rename(tmp, path); err != nil {
		// Best effort cleanup, the rename already failed
		_ = fsys.Remove(tmp)
		return fmt.Errorf("failed to rename %s into place: %w", tmp, err)
	}

	return nil
}
