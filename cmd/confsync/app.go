package main

import (
	"github.com/arthur-debert/confsync/pkg/backup"
	"github.com/arthur-debert/confsync/pkg/config"
	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/install"
	"github.com/arthur-debert/confsync/pkg/manifest"
	"github.com/arthur-debert/confsync/pkg/paths"
	"github.com/arthur-debert/confsync/pkg/planner"
	"github.com/arthur-debert/confsync/pkg/sources"
	"github.com/arthur-debert/confsync/pkg/types"
	"github.com/arthur-debert/confsync/pkg/version"
)

// app bundles the wiring every command needs: resolved paths, loaded
// configuration, and the real filesystem.
type app struct {
	paths paths.Paths
	cfg   *config.Config
	fs    types.FS
}

func newApp() (*app, error) {
	p, err := paths.New()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(p.ConfigFilePath())
	if err != nil {
		return nil, err
	}
	return &app{paths: p, cfg: cfg, fs: filesystem.NewOS()}, nil
}

func (a *app) sourceManager() *sources.Manager {
	return sources.NewManager(a.fs, a.paths.SourcesCacheDir(),
		sources.UnreachablePolicy(a.cfg.Sources.OnUnreachable))
}

func (a *app) loadSources() ([]sources.Source, error) {
	return sources.Load(a.fs, a.paths.SourcesFilePath())
}

// resolveSourceRoot materializes the declared sources and returns the
// directory of the one to install from. An explicit --from directory
// bypasses declarations entirely; --source picks a declared source by
// name; otherwise the first reachable declared source wins.
func (a *app) resolveSourceRoot(from, sourceName string) (string, []string, error) {
	if from != "" {
		return from, nil, nil
	}

	srcs, err := a.loadSources()
	if err != nil {
		return "", nil, err
	}
	mgr := a.sourceManager()

	if sourceName != "" {
		for _, src := range srcs {
			if src.Name == sourceName {
				dir, err := mgr.Materialize(src)
				return dir, nil, err
			}
		}
		return "", nil, errors.Newf(errors.ErrSourceInvalid,
			"no declared source named %q", sourceName)
	}

	resolved, warnings, err := mgr.MaterializeAll(srcs)
	if err != nil {
		return "", nil, err
	}
	if len(resolved) == 0 {
		return "", warnings, errors.New(errors.ErrSourceUnreachable,
			"no declared source could be materialized")
	}
	return resolved[0].Dir, warnings, nil
}

// runContext carries the run-wide state. Destinations resolve per
// category from its target_dir; the config target.dir only replaces
// the home directory as the base those dirs resolve against.
func (a *app) runContext() types.RunContext {
	return types.RunContext{
		TargetRoot: a.cfg.Target.Dir,
		HomeDir:    a.paths.Home(),
		FS:         a.fs,
		DryRun:     dryRun,
		Force:      force,
	}
}

// installer wires the full pipeline against a resolved source tree.
// Backups and the version stamp live at the common root of the selected
// categories' destinations.
func (a *app) installer(sourceRoot string, categories []string) (*install.Installer, types.RunContext, error) {
	reg, err := manifest.Load(a.fs, sourceRoot)
	if err != nil {
		return nil, types.RunContext{}, err
	}
	ctx := a.runContext()
	root := planner.CommonRoot(ctx, reg.Select(categories))
	inst := install.New(reg,
		backup.NewManager(a.fs, root),
		a.tracker(root))
	return inst, ctx, nil
}

func (a *app) backups(targetRoot string) *backup.Manager {
	return backup.NewManager(a.fs, targetRoot)
}

func (a *app) tracker(targetRoot string) *version.Tracker {
	return version.NewTracker(a.fs, targetRoot)
}

// targetRootOnly resolves the backup and stamp root for commands that
// only need to know where the target tree lives: the common root of
// every category's destination per the manifest at sourceRoot.
func (a *app) targetRootOnly(sourceRoot string) (string, error) {
	reg, err := manifest.Load(a.fs, sourceRoot)
	if err != nil {
		return "", err
	}
	return planner.CommonRoot(a.runContext(), reg.Select(nil)), nil
}
