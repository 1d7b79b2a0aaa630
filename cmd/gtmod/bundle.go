package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/bundle"
	"github.com/gtmod/gtmod/pkg/gtmod/descriptor"
	"github.com/gtmod/gtmod/pkg/gtmod/history"
)

var bundleOutput string

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Build the distributable .gt2extension archive",
	Long: `Zip the project's CORE tree and readme.txt into a .gt2extension
archive that players install with the game's mod manager.

The descriptor and readme are refreshed first so the archive always carries
the current mod metadata. By default the archive lands next to the project
directory, named after the mod.`,
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleOutput, "output", "o", "", "output archive path")
	rootCmd.AddCommand(bundleCmd)
}

// runBundle refreshes the metadata files and zips the mod.
func runBundle(cmd *cobra.Command, args []string) error {
	cfg, ws, runner, err := bootstrap(true)
	if err != nil {
		return err
	}
	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return err
	}

	// Refresh metadata so the bundle matches the configured mod details.
	if err := ws.UpdateReadme(cfg.Mod); err != nil {
		return fmt.Errorf("failed to update readme.txt: %w", err)
	}
	gen := descriptor.NewGenerator(runner, cfg, ws)
	if err := gen.Generate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to refresh desc.addpack: %w", err)
	}

	b := bundle.NewBundler(cfg, ws)
	out, err := b.Bundle(bundleOutput)
	if err != nil {
		return err
	}

	rec := history.OutputRecord{Path: out}
	if info, err := os.Stat(out); err == nil {
		rec.Size = info.Size()
	}
	logHistory(cfg, history.OpBundle, []history.OutputRecord{rec})

	printInfo("Mod archive created: %s (%s)", out, humanize.Bytes(uint64(rec.Size)))
	return nil
}
