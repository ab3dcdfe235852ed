package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/confsync/pkg/display"
	"github.com/arthur-debert/confsync/pkg/logging"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Snapshots to retain (default from config)")

	for _, cmd := range []*cobra.Command{backupsCmd, restoreCmd, pruneCmd} {
		cmd.Flags().StringVar(&fromDir, "from", "", "Resolve the target tree from a local source directory")
		cmd.Flags().StringVar(&sourceName, "source", "", "Resolve the target tree via the named declared source")
		rootCmd.AddCommand(cmd)
	}
}

// resolveTarget finds the snapshot root for backup-oriented commands.
func resolveTarget(a *app) (string, error) {
	sourceRoot, _, err := a.resolveSourceRoot(fromDir, sourceName)
	if err != nil {
		return "", err
	}
	return a.targetRootOnly(sourceRoot)
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List snapshots of the target tree, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		targetRoot, err := resolveTarget(a)
		if err != nil {
			return err
		}

		backups, err := a.backups(targetRoot).List()
		if err != nil {
			return err
		}
		return display.NewRenderer(cmd.OutOrStdout()).RenderBackups(backups)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-id]",
	Short: "Write a snapshot back over the target tree",
	Long: `Restore writes the named snapshot back over the target tree. Without an
argument the most recent snapshot is restored. Files are written with a
temporary file and rename, so a restore never leaves a half-written
destination.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		targetRoot, err := resolveTarget(a)
		if err != nil {
			return err
		}

		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		result, err := a.backups(targetRoot).Restore(id)
		if err != nil {
			return err
		}
		cmd.Printf("Restored %d file(s) from %s\n", len(result.Files), result.ID)
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots, keeping the most recent ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("cmd.prune")

		a, err := newApp()
		if err != nil {
			return err
		}
		targetRoot, err := resolveTarget(a)
		if err != nil {
			return err
		}

		keep := pruneKeep
		if keep <= 0 {
			keep = a.cfg.Backups.Keep
		}

		deleted, err := a.backups(targetRoot).Prune(keep)
		if err != nil {
			return err
		}
		logger.Info().Int("deleted", deleted).Int("keep", keep).Msg("Prune finished")
		cmd.Printf("Deleted %d snapshot(s), kept the %d most recent\n", deleted, keep)
		return nil
	},
}
