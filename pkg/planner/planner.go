// Package planner computes the install plan: a pure, read-only diff of a
// resolved source tree against the target tree, classifying every file
// by content comparison.
package planner

import (
	"bytes"
	"crypto/sha256"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/manifest"
	"github.com/arthur-debert/confsync/pkg/types"
)

// Compute diffs the resolved source files of the selected categories
// against the target tree and returns an ordered plan. Categories keep
// their manifest declaration order so display and application order are
// deterministic. The target tree is never touched.
//
// A category whose destinations collide, or that references a missing
// source file, is skipped with a recorded warning; the rest of the plan
// proceeds.
func Compute(ctx types.RunContext, reg *manifest.Registry, categories []string) (*types.Plan, error) {
	logger := logging.GetLogger("planner")

	plan := &types.Plan{}
	for _, cat := range reg.Select(categories) {
		catPlan, err := computeCategory(ctx, reg, cat)
		if err != nil {
			logger.Warn().
				Str("category", cat.Name).
				Err(err).
				Msg("Category skipped")
			plan.Warnings = append(plan.Warnings, err.Error())
			continue
		}
		plan.Categories = append(plan.Categories, catPlan)
	}

	counts := plan.CountByStatus()
	logger.Debug().
		Int("new", counts[types.StatusNew]).
		Int("updated", counts[types.StatusUpdated]).
		Int("unchanged", counts[types.StatusUnchanged]).
		Int("merge", counts[types.StatusMerge]).
		Msg("Plan computed")

	return plan, nil
}

func computeCategory(ctx types.RunContext, reg *manifest.Registry, cat types.Category) (types.CategoryPlan, error) {
	files, err := reg.ResolveFiles(cat)
	if err != nil {
		return types.CategoryPlan{}, err
	}

	// Destination collisions are detected before any file is classified
	seen := make(map[string]bool, len(files))
	for _, entry := range files {
		if seen[entry.Dest] {
			return types.CategoryPlan{}, errors.Newf(errors.ErrPlanDuplicateDest,
				"category %s maps two files to destination %s", cat.Name, entry.Dest)
		}
		seen[entry.Dest] = true
	}

	// Partial source availability skips the category, not the run
	for _, entry := range files {
		srcPath := filepath.Join(reg.SourceRoot(), filepath.FromSlash(entry.Src))
		if _, err := ctx.FS.Stat(srcPath); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return types.CategoryPlan{}, errors.Newf(errors.ErrFileNotFound,
					"category %s references missing source file %s", cat.Name, entry.Src)
			}
			return types.CategoryPlan{}, errors.Wrapf(err, errors.ErrFileAccess,
				"category %s: cannot read source file %s", cat.Name, entry.Src)
		}
	}

	catPlan := types.CategoryPlan{Category: cat}
	for _, entry := range files {
		item, err := classify(ctx, reg.SourceRoot(), cat, entry)
		if err != nil {
			return types.CategoryPlan{}, err
		}
		catPlan.Items = append(catPlan.Items, item)
	}

	return catPlan, nil
}

func classify(ctx types.RunContext, sourceRoot string, cat types.Category, entry types.FileEntry) (types.PlanItem, error) {
	item := types.PlanItem{
		Entry:      entry,
		Category:   cat.Name,
		SourcePath: filepath.Join(sourceRoot, filepath.FromSlash(entry.Src)),
		DestPath:   filepath.Join(DestBase(ctx, cat), filepath.FromSlash(entry.Dest)),
	}

	_, err := ctx.FS.Stat(item.DestPath)
	switch {
	case err != nil && stderrors.Is(err, fs.ErrNotExist):
		item.Status = types.StatusNew
		return item, nil
	case err != nil:
		return item, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot stat destination %s", item.DestPath)
	}

	same, err := sameContent(ctx.FS, item.SourcePath, item.DestPath)
	if err != nil {
		return item, err
	}

	switch {
	case same:
		item.Status = types.StatusUnchanged
	case entry.Merge:
		item.Status = types.StatusMerge
	default:
		item.Status = types.StatusUpdated
	}
	return item, nil
}

// DestBase resolves a category's destination root: its target_dir
// resolved against the base root. Every category keeps its own
// target_dir; the base only decides what relative dirs resolve against.
func DestBase(ctx types.RunContext, cat types.Category) string {
	dir := filepath.FromSlash(cat.TargetDir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseRoot(ctx), dir)
}

// baseRoot is the directory relative target_dirs resolve against: the
// explicit override from the run context when set, the home directory
// otherwise.
func baseRoot(ctx types.RunContext) string {
	if ctx.TargetRoot != "" {
		return ctx.TargetRoot
	}
	return ctx.HomeDir
}

// CommonRoot returns the longest shared path prefix of the categories'
// destination roots. Backups and the version stamp live here, so a
// manifest spreading categories over nested target_dirs keeps a single
// snapshot and stamp location.
func CommonRoot(ctx types.RunContext, cats []types.Category) string {
	if len(cats) == 0 {
		return baseRoot(ctx)
	}
	root := DestBase(ctx, cats[0])
	for _, cat := range cats[1:] {
		root = commonPrefix(root, DestBase(ctx, cat))
	}
	if root == "" {
		return baseRoot(ctx)
	}
	return root
}

func commonPrefix(a, b string) string {
	sep := string(filepath.Separator)
	as := strings.Split(filepath.Clean(a), sep)
	bs := strings.Split(filepath.Clean(b), sep)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return strings.Join(as[:n], sep)
}

// sameContent compares two files by content hash. Modification times
// play no part in classification.
func sameContent(fsys types.FS, a, b string) (bool, error) {
	hashA, err := hashFile(fsys, a)
	if err != nil {
		return false, err
	}
	hashB, err := hashFile(fsys, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(hashA, hashB), nil
}

func hashFile(fsys types.FS, path string) ([]byte, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}
