package planner

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/manifest"
	"github.com/arthur-debert/confsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planManifest = `{
	"version": "1.0",
	"categories": [
		{
			"name": "core",
			"target_dir": ".config/app",
			"install_type": "merge",
			"files": [
				{"src": "core/settings.json", "dest": "settings.json", "merge": true},
				{"src": "core/statusline.sh", "dest": "statusline.sh", "executable": true}
			]
		},
		{
			"name": "agents",
			"target_dir": ".config/app",
			"install_type": "discover",
			"files": []
		}
	]
}`

func setup(t *testing.T) (types.RunContext, *manifest.Registry) {
	t.Helper()
	fs := filesystem.NewMemory()

	require.NoError(t, fs.MkdirAll("/src/core", 0755))
	require.NoError(t, fs.WriteFile("/src/manifest.json", []byte(planManifest), 0644))
	require.NoError(t, fs.WriteFile("/src/core/settings.json", []byte(`{"model": "smart"}`), 0644))
	require.NoError(t, fs.WriteFile("/src/core/statusline.sh", []byte("#!/bin/sh\n"), 0644))

	reg, err := manifest.Load(fs, "/src")
	require.NoError(t, err)

	ctx := types.RunContext{
		HomeDir: "/home/user",
		FS:      fs,
	}
	return ctx, reg
}

func TestComputeFreshTarget(t *testing.T) {
	ctx, reg := setup(t)

	plan, err := Compute(ctx, reg, nil)
	require.NoError(t, err)
	require.Len(t, plan.Categories, 2)

	core := plan.Categories[0]
	require.Len(t, core.Items, 2)
	for _, item := range core.Items {
		assert.Equal(t, types.StatusNew, item.Status)
	}

	// Resolved paths point into the target tree
	assert.Equal(t,
		filepath.Join("/home/user/.config/app", "settings.json"),
		core.Items[0].DestPath)

	// Discover category with no subtree contributes an empty group
	assert.Empty(t, plan.Categories[1].Items)
}

func TestComputeStatuses(t *testing.T) {
	ctx, reg := setup(t)

	// Unchanged: identical content on both sides
	require.NoError(t, ctx.FS.MkdirAll("/home/user/.config/app", 0755))
	require.NoError(t, ctx.FS.WriteFile("/home/user/.config/app/statusline.sh", []byte("#!/bin/sh\n"), 0755))
	// Merge: mergeable file with differing content
	require.NoError(t, ctx.FS.WriteFile("/home/user/.config/app/settings.json", []byte(`{"model": "fast"}`), 0644))

	plan, err := Compute(ctx, reg, []string{"core"})
	require.NoError(t, err)
	require.Len(t, plan.Categories, 1)

	items := plan.Categories[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, types.StatusMerge, items[0].Status)
	assert.Equal(t, types.StatusUnchanged, items[1].Status)
}

func TestComputeUpdatedNonMergeable(t *testing.T) {
	ctx, reg := setup(t)

	require.NoError(t, ctx.FS.MkdirAll("/home/user/.config/app", 0755))
	require.NoError(t, ctx.FS.WriteFile("/home/user/.config/app/statusline.sh", []byte("old\n"), 0755))

	plan, err := Compute(ctx, reg, []string{"core"})
	require.NoError(t, err)

	items := plan.Categories[0].Items
	assert.Equal(t, types.StatusNew, items[0].Status)
	assert.Equal(t, types.StatusUpdated, items[1].Status)
}

func TestComputeDiscoverEnumeratesAtPlanTime(t *testing.T) {
	ctx, reg := setup(t)

	require.NoError(t, ctx.FS.MkdirAll("/src/agents", 0755))
	require.NoError(t, ctx.FS.WriteFile("/src/agents/reviewer.md", []byte("# reviewer"), 0644))
	require.NoError(t, ctx.FS.WriteFile("/src/agents/setup.sh", []byte("#!/bin/sh"), 0644))

	plan, err := Compute(ctx, reg, []string{"agents"})
	require.NoError(t, err)
	require.Len(t, plan.Categories, 1)

	items := plan.Categories[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "reviewer.md", items[0].Entry.Dest)
	assert.True(t, items[1].Entry.Executable)
}

func TestComputeMissingSourceSkipsCategory(t *testing.T) {
	ctx, reg := setup(t)
	require.NoError(t, ctx.FS.Remove("/src/core/statusline.sh"))

	plan, err := Compute(ctx, reg, nil)
	require.NoError(t, err)

	// core is skipped with a warning, agents still planned
	require.Len(t, plan.Categories, 1)
	assert.Equal(t, "agents", plan.Categories[0].Category.Name)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "statusline.sh")
}

func TestComputeDuplicateDestination(t *testing.T) {
	fs := filesystem.NewMemory()
	dupManifest := `{
		"categories": [
			{
				"name": "core",
				"target_dir": ".config/app",
				"install_type": "overwrite",
				"files": [
					{"src": "a.txt", "dest": "same.txt"},
					{"src": "b.txt", "dest": "same.txt"}
				]
			}
		]
	}`
	require.NoError(t, fs.MkdirAll("/src", 0755))
	require.NoError(t, fs.WriteFile("/src/manifest.json", []byte(dupManifest), 0644))
	require.NoError(t, fs.WriteFile("/src/a.txt", []byte("a"), 0644))
	require.NoError(t, fs.WriteFile("/src/b.txt", []byte("b"), 0644))

	reg, err := manifest.Load(fs, "/src")
	require.NoError(t, err)

	ctx := types.RunContext{HomeDir: "/home/user", FS: fs}
	plan, err := Compute(ctx, reg, nil)
	require.NoError(t, err)

	assert.Empty(t, plan.Categories, "category with colliding destinations contributes nothing")
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "PLAN_DUPLICATE_DEST")
}

func TestComputePerCategoryDestinations(t *testing.T) {
	fs := filesystem.NewMemory()
	multiManifest := `{
		"categories": [
			{
				"name": "core",
				"target_dir": ".config/app",
				"install_type": "merge",
				"files": [{"src": "core/settings.json", "dest": "settings.json", "merge": true}]
			},
			{
				"name": "agents",
				"target_dir": ".config/app/agents",
				"install_type": "overwrite",
				"files": [{"src": "agents/reviewer.md", "dest": "reviewer.md"}]
			}
		]
	}`
	require.NoError(t, fs.MkdirAll("/src/core", 0755))
	require.NoError(t, fs.MkdirAll("/src/agents", 0755))
	require.NoError(t, fs.WriteFile("/src/manifest.json", []byte(multiManifest), 0644))
	require.NoError(t, fs.WriteFile("/src/core/settings.json", []byte(`{"model": "smart"}`), 0644))
	require.NoError(t, fs.WriteFile("/src/agents/reviewer.md", []byte("# reviewer"), 0644))

	reg, err := manifest.Load(fs, "/src")
	require.NoError(t, err)

	ctx := types.RunContext{HomeDir: "/home/user", FS: fs}
	plan, err := Compute(ctx, reg, nil)
	require.NoError(t, err)
	require.Len(t, plan.Categories, 2)

	// Each category lands under its own target_dir, not the first one's
	assert.Equal(t, "/home/user/.config/app/settings.json",
		plan.Categories[0].Items[0].DestPath)
	assert.Equal(t, "/home/user/.config/app/agents/reviewer.md",
		plan.Categories[1].Items[0].DestPath)
}

func TestDestBase(t *testing.T) {
	cat := types.Category{Name: "core", TargetDir: ".config/app"}

	ctx := types.RunContext{HomeDir: "/home/user"}
	assert.Equal(t, "/home/user/.config/app", DestBase(ctx, cat))

	// An explicit base keeps the per-category layout under it
	ctx.TargetRoot = "/opt/base"
	assert.Equal(t, "/opt/base/.config/app", DestBase(ctx, cat))

	// Absolute target_dirs stand alone
	abs := types.Category{Name: "sys", TargetDir: "/etc/app"}
	assert.Equal(t, "/etc/app", DestBase(ctx, abs))
}

func TestCommonRoot(t *testing.T) {
	ctx := types.RunContext{HomeDir: "/home/user"}
	cats := []types.Category{
		{TargetDir: ".config/app/agents"},
		{TargetDir: ".config/app"},
		{TargetDir: ".config/app/rules"},
	}
	assert.Equal(t, "/home/user/.config/app", CommonRoot(ctx, cats))
	assert.Equal(t, "/home/user", CommonRoot(ctx, nil))
}

func TestComputeDoesNotTouchTarget(t *testing.T) {
	ctx, reg := setup(t)

	_, err := Compute(ctx, reg, nil)
	require.NoError(t, err)

	// The plan must not create the target tree as a side effect
	_, err = ctx.FS.Stat("/home/user/.config/app")
	assert.Error(t, err)
}

func TestComputeOrderIsDeterministic(t *testing.T) {
	ctx, reg := setup(t)

	planA, err := Compute(ctx, reg, nil)
	require.NoError(t, err)
	planB, err := Compute(ctx, reg, nil)
	require.NoError(t, err)

	assert.Equal(t, planA.CategoryNames(), planB.CategoryNames())
	for i := range planA.Categories {
		assert.Equal(t, planA.Categories[i].Items, planB.Categories[i].Items)
	}
}
