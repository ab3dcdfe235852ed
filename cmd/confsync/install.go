package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/confsync/pkg/display"
	"github.com/arthur-debert/confsync/pkg/logging"
)

var (
	fromDir    string
	sourceName string
)

func init() {
	for _, cmd := range []*cobra.Command{installCmd, planCmd, checkUpdateCmd} {
		cmd.Flags().StringVar(&fromDir, "from", "", "Install from a local directory instead of declared sources")
		cmd.Flags().StringVar(&sourceName, "source", "", "Use the declared source with this name")
		rootCmd.AddCommand(cmd)
	}
}

var installCmd = &cobra.Command{
	Use:   "install [categories...]",
	Short: "Install or update the selected categories",
	Long: `Install fetches the configured source, plans the changes by comparing
file content against the target tree, backs up every file about to
change, and applies the plan. With no arguments all declared categories
are installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("cmd.install")

		a, err := newApp()
		if err != nil {
			return err
		}
		sourceRoot, warnings, err := a.resolveSourceRoot(fromDir, sourceName)
		if err != nil {
			return err
		}

		inst, ctx, err := a.installer(sourceRoot, args)
		if err != nil {
			return err
		}

		logger.Info().
			Str("source", sourceRoot).
			Bool("dryRun", ctx.DryRun).
			Strs("categories", args).
			Msg("Starting install")

		result, err := inst.Install(ctx, args)
		if result != nil {
			result.Warnings = append(warnings, result.Warnings...)
			if renderErr := display.NewRenderer(cmd.OutOrStdout()).RenderResult(result); renderErr != nil {
				return renderErr
			}
		}
		return err
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [categories...]",
	Short: "Show what an install would change without touching anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		sourceRoot, warnings, err := a.resolveSourceRoot(fromDir, sourceName)
		if err != nil {
			return err
		}

		inst, ctx, err := a.installer(sourceRoot, args)
		if err != nil {
			return err
		}
		plan, err := inst.Plan(ctx, args)
		if err != nil {
			return err
		}
		plan.Warnings = append(warnings, plan.Warnings...)
		return display.NewRenderer(cmd.OutOrStdout()).RenderPlan(plan, false)
	},
}

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Report whether the source has changed since the last install",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		sourceRoot, _, err := a.resolveSourceRoot(fromDir, sourceName)
		if err != nil {
			return err
		}

		targetRoot, err := a.targetRootOnly(sourceRoot)
		if err != nil {
			return err
		}

		updates, err := a.tracker(targetRoot).HasUpdates(sourceRoot)
		if err != nil {
			return err
		}
		if updates {
			cmd.Println("Updates available, run `confsync install` to apply")
		} else {
			cmd.Println("Up to date")
		}
		return nil
	},
}
