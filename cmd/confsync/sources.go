package main

import (
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/confsync/pkg/config"
	"github.com/arthur-debert/confsync/pkg/display"
	"github.com/arthur-debert/confsync/pkg/errors"
)

func init() {
	sourcesCmd.AddCommand(sourcesFetchCmd)
	configCmd.AddCommand(configDefaultsCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(configCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the declared configuration sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		srcs, err := a.loadSources()
		if err != nil {
			return err
		}
		return display.NewRenderer(cmd.OutOrStdout()).RenderSources(srcs)
	},
}

var sourcesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Materialize every declared source into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		srcs, err := a.loadSources()
		if err != nil {
			return err
		}

		resolved, warnings, err := a.sourceManager().MaterializeAll(srcs)
		if err != nil {
			return err
		}
		for _, res := range resolved {
			cmd.Printf("%s -> %s\n", res.Source.Name, res.Dir)
		}
		for _, warning := range warnings {
			cmd.Printf("warning: %s\n", warning)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the tool configuration",
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in configuration defaults",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(config.GetDefaultConfigContent())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration after all override layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		out, err := toml.Marshal(a.cfg)
		if err != nil {
			return errors.Wrap(err, errors.ErrConfigLoad, "cannot encode configuration")
		}
		cmd.Print(string(out))
		return nil
	},
}
