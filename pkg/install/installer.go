// Package install orchestrates a run: plan, back up, apply, stamp. The
// pipeline moves through fixed stages; a failure before any mutation
// aborts cleanly, and a failure mid-apply reports exactly what was
// written, what was not, and which backup to restore.
package install

import (
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/confsync/pkg/backup"
	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/filesystem"
	"github.com/arthur-debert/confsync/pkg/logging"
	"github.com/arthur-debert/confsync/pkg/manifest"
	"github.com/arthur-debert/confsync/pkg/planner"
	"github.com/arthur-debert/confsync/pkg/settings"
	"github.com/arthur-debert/confsync/pkg/types"
	"github.com/arthur-debert/confsync/pkg/version"
)

// Stage names the phases of a run, in order.
type Stage string

const (
	StageResolving Stage = "resolving"
	StagePlanning  Stage = "planning"
	StageBackingUp Stage = "backing-up"
	StageApplying  Stage = "applying"
	StageStamping  Stage = "stamping"
)

// ApplyResult reports what a run did. On a mid-apply failure Applied
// holds exactly the files written before the failure and BackupID names
// the snapshot to restore; nothing is rolled back automatically.
type ApplyResult struct {
	Plan     *types.Plan
	Applied  []string
	Skipped  []string
	Checked  []string
	Warnings []string
	BackupID string
	Merged   int
	DryRun   bool
}

// Installer applies install plans against a target tree.
type Installer struct {
	registry *manifest.Registry
	backups  *backup.Manager
	tracker  *version.Tracker
}

// New creates an installer bound to a validated registry and the backup
// and version managers for the target tree.
func New(reg *manifest.Registry, backups *backup.Manager, tracker *version.Tracker) *Installer {
	return &Installer{registry: reg, backups: backups, tracker: tracker}
}

// Plan computes the change plan without mutating anything.
func (i *Installer) Plan(ctx types.RunContext, categories []string) (*types.Plan, error) {
	return planner.Compute(ctx, i.registry, categories)
}

// Install runs the full pipeline for the selected categories: plan,
// back up every file about to change, apply, and stamp. A backup
// failure aborts before any mutation. In dry-run mode only the plan is
// returned.
func (i *Installer) Install(ctx types.RunContext, categories []string) (*ApplyResult, error) {
	logger := logging.GetLogger("install")

	logger.Debug().Str("stage", string(StagePlanning)).Msg("Stage entered")
	plan, err := i.Plan(ctx, categories)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Plan: plan, Warnings: plan.Warnings, DryRun: ctx.DryRun}
	if ctx.DryRun {
		return result, nil
	}

	// Backup runs before the first write and must succeed completely.
	// Only destinations about to be overwritten are captured; check
	// categories and files that do not exist yet have nothing to lose.
	var toBackup []string
	for _, item := range plan.Changed() {
		if item.Status == types.StatusNew {
			continue
		}
		toBackup = append(toBackup, item.DestPath)
	}
	if len(toBackup) > 0 {
		logger.Debug().Str("stage", string(StageBackingUp)).Msg("Stage entered")
		info, err := i.backups.Create(toBackup, plan.CategoryNames())
		if err != nil {
			return nil, err
		}
		result.BackupID = info.ID
	}

	logger.Debug().Str("stage", string(StageApplying)).Msg("Stage entered")
	if err := i.apply(ctx, plan, result); err != nil {
		return result, err
	}

	logger.Debug().Str("stage", string(StageStamping)).Msg("Stage entered")
	fingerprint, err := version.Fingerprint(ctx.FS, i.registry.SourceRoot())
	if err != nil {
		return result, err
	}
	if err := i.tracker.WriteStamp(fingerprint, plan.CategoryNames()); err != nil {
		return result, err
	}

	logger.Info().
		Int("applied", len(result.Applied)).
		Int("skipped", len(result.Skipped)).
		Int("merged", result.Merged).
		Str("backup", result.BackupID).
		Msg("Install completed")
	return result, nil
}

func (i *Installer) apply(ctx types.RunContext, plan *types.Plan, result *ApplyResult) error {
	logger := logging.GetLogger("install")

	for _, catPlan := range plan.Categories {
		check := catPlan.Category.InstallType == types.InstallTypeCheck

		for _, item := range catPlan.Items {
			if check {
				result.Checked = append(result.Checked,
					item.Entry.Dest+": "+string(item.Status))
				continue
			}

			if item.Status == types.StatusUnchanged && !ctx.Force {
				result.Skipped = append(result.Skipped, item.Entry.Dest)
				continue
			}

			if item.Entry.Merge {
				if err := i.applyMerge(ctx, item); err != nil {
					// A malformed document fails that file only
					if errors.IsErrorCode(err, errors.ErrMergeParse) {
						logger.Warn().
							Str("file", item.Entry.Dest).
							Err(err).
							Msg("Merge skipped, document not parseable")
						result.Warnings = append(result.Warnings, err.Error())
						continue
					}
					return i.applyFailed(result, item, err)
				}
				result.Merged++
				result.Applied = append(result.Applied, item.Entry.Dest)
				continue
			}

			if err := applyFile(ctx, item); err != nil {
				return i.applyFailed(result, item, err)
			}
			result.Applied = append(result.Applied, item.Entry.Dest)
		}
	}
	return nil
}

// applyFailed wraps a write failure with the full picture the caller
// needs: what got applied, what did not, and the backup to restore.
func (i *Installer) applyFailed(result *ApplyResult, item types.PlanItem, err error) error {
	return errors.Wrapf(err, errors.ErrApplyWrite,
		"apply failed at %s in category %s", item.Entry.Dest, item.Category).
		WithDetail("stage", string(StageApplying)).
		WithDetail("applied", result.Applied).
		WithDetail("backup", result.BackupID)
}

// applyFile copies one file into the target tree with an atomic write,
// resolving template placeholders and setting the executable bit as
// flagged.
func applyFile(ctx types.RunContext, item types.PlanItem) error {
	content, err := ctx.FS.ReadFile(item.SourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"cannot read source file %s", item.SourcePath)
	}

	if item.Entry.Template {
		content = []byte(settings.ResolveTemplateString(string(content), ctx.HomeDir))
	}

	perm := fs.FileMode(0644)
	if item.Entry.Executable {
		perm = 0755
	}

	if err := filesystem.WriteFileAtomic(ctx.FS, item.DestPath, content, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", item.DestPath)
	}
	if item.Entry.Executable {
		if err := ctx.FS.Chmod(item.DestPath, perm); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite,
				"cannot set executable bit on %s", item.DestPath)
		}
	}
	return nil
}

// applyMerge routes a mergeable settings file through the merger. An
// absent destination takes the incoming document as-is; a destination
// that exists but cannot be read fails the apply rather than risk
// overwriting state the user still has. In both cases template
// placeholders are resolved before anything is written.
func (i *Installer) applyMerge(ctx types.RunContext, item types.PlanItem) error {
	srcData, err := ctx.FS.ReadFile(item.SourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"cannot read source file %s", item.SourcePath)
	}
	srcDoc, err := settings.Parse(srcData)
	if err != nil {
		return err
	}
	srcDoc = settings.ResolveTemplates(srcDoc, ctx.HomeDir)

	destData, err := ctx.FS.ReadFile(item.DestPath)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"cannot read destination %s", item.DestPath)
	}

	merged := srcDoc
	if err == nil {
		destDoc, err := settings.Parse(destData)
		if err != nil {
			return err
		}
		if destDoc.Len() > 0 {
			merged = settings.Merge(srcDoc, destDoc)
		}
	}

	data, err := settings.Encode(merged)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(ctx.FS, item.DestPath, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", item.DestPath)
	}
	return nil
}

// Restore is the explicit follow-up to a failed apply: it writes the
// named backup (or the most recent one) back over the target tree.
func (i *Installer) Restore(backupID string) (*backup.RestoreResult, error) {
	return i.backups.Restore(backupID)
}
