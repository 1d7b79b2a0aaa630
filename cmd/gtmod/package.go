package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/descriptor"
	"github.com/gtmod/gtmod/pkg/gtmod/history"
	"github.com/gtmod/gtmod/pkg/gtmod/pack"
)

var packageOnly []string

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Build the mod descriptor and flatdata archives",
	Long: `Generate everything the game needs to install the mod: refresh
readme.txt, compile CORE/desc.addpack from the game's stencil template, and
pack the prepared asset folders into flatdata archives under
CORE/shared/packed_data.

Archives with no prepared assets are skipped; their existing versions are
left untouched. A failed archive build never replaces a previous archive.

Examples:
  gtmod package                 # Build everything
  gtmod package --only textures # Rebuild only textures.flatdata`,
	RunE: runPackage,
}

func init() {
	packageCmd.Flags().StringSliceVar(&packageOnly, "only", nil, "restrict to the named archive stems (textures, sounds)")
	rootCmd.AddCommand(packageCmd)
}

// runPackage builds the descriptor and the asset archives.
func runPackage(cmd *cobra.Command, args []string) error {
	cfg, ws, runner, err := bootstrap(true)
	if err != nil {
		return err
	}
	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return err
	}

	printInfo("Packaging mod %q version %s...", cfg.Mod.Name, cfg.Mod.Version)

	if err := ws.UpdateReadme(cfg.Mod); err != nil {
		printError("Failed to update readme.txt: %v", err)
	}

	gen := descriptor.NewGenerator(runner, cfg, ws)
	if err := gen.Generate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to generate desc.addpack: %w", err)
	}
	printInfo("desc.addpack updated.")

	p := pack.NewPackager(runner, cfg, ws)
	archives, err := p.Package(cmd.Context(), packageOnly)
	if err != nil {
		return err
	}

	if len(archives) == 0 {
		printInfo("No prepared assets found; only desc.addpack and readme.txt were updated.")
	}

	records := make([]history.OutputRecord, 0, len(archives))
	for _, a := range archives {
		rec := history.OutputRecord{Path: a.Path, Assets: a.Assets}
		if info, err := os.Stat(a.Path); err == nil {
			rec.Size = info.Size()
		}
		printInfo("%s: %d asset(s), %s", a.Stem+pack.ArchiveExt, a.Assets, humanize.Bytes(uint64(rec.Size)))
		records = append(records, rec)
	}
	logHistory(cfg, history.OpPackage, records)

	printInfo("Packaging complete. Run 'gtmod bundle' to build the distributable archive.")
	return nil
}
