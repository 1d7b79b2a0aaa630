package main

import (
	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/extract"
	"github.com/gtmod/gtmod/pkg/gtmod/history"
)

var extractDeleteATF bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Unpack game archives into the project",
	Long: `Unpack flatdata archives from the game installation into the mod
project, so original assets can be studied and reworked.

Archives are searched in data/k43t/shared/packed_data and the localization
folders. Unpacking is read-only with respect to the game installation.`,
}

var extractTexturesCmd = &cobra.Command{
	Use:   "textures <archive>...",
	Short: "Unpack texture archives and convert them to DDS",
	Long: `Unpack the named texture archives. Original .texture files are kept
under extracted_game_textures/atf/ and converted copies appear under
extracted_game_textures/dds/, grouped by archive.

Example:
  gtmod extract textures tex_main.flatdata tenv_summer.flatdata`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtractTextures,
}

var extractSoundsCmd = &cobra.Command{
	Use:   "sounds <archive>...",
	Short: "Unpack sound archives",
	Long: `Unpack the named sound archives into extracted_game_sounds, grouped by
archive. Files in the game's .loc_def.sound format are renamed to .aaf.

Example:
  gtmod extract sounds sounds.flatdata speech_eng.flatdata`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtractSounds,
}

func init() {
	extractTexturesCmd.Flags().BoolVar(&extractDeleteATF, "delete-atf", false, "remove original .texture files after successful conversion")

	extractCmd.AddCommand(extractTexturesCmd)
	extractCmd.AddCommand(extractSoundsCmd)
	rootCmd.AddCommand(extractCmd)
}

// runExtractTextures unpacks and converts texture archives.
func runExtractTextures(cmd *cobra.Command, args []string) error {
	cfg, ws, runner, err := bootstrap(true)
	if err != nil {
		return err
	}
	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return err
	}

	printInfo("Extracting %d texture archive(s); large archives can take minutes...", len(args))

	e := extract.NewExtractor(runner, cfg, ws)
	report, err := e.Textures(cmd.Context(), args, extractDeleteATF)
	if err != nil {
		return err
	}

	reportExtraction(cfg, report)
	printInfo("DDS files are in %s", ws.ExtractedDDS())
	return nil
}

// runExtractSounds unpacks sound archives.
func runExtractSounds(cmd *cobra.Command, args []string) error {
	cfg, ws, runner, err := bootstrap(true)
	if err != nil {
		return err
	}
	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return err
	}

	printInfo("Extracting %d sound archive(s)...", len(args))

	e := extract.NewExtractor(runner, cfg, ws)
	report, err := e.Sounds(cmd.Context(), args)
	if err != nil {
		return err
	}

	reportExtraction(cfg, report)
	printInfo("Sound files are in %s", ws.ExtractedSounds())
	return nil
}

// reportExtraction prints the outcome and records it in the history.
func reportExtraction(cfg *config.Config, report *extract.Report) {
	for _, f := range report.Files {
		printVerbose("extracted %s", f)
	}
	for _, skipped := range report.Skipped {
		printError("skipped %s (not found or failed to unpack)", skipped)
	}
	printInfo("Extracted %d file(s), skipped %d archive(s).", len(report.Files), len(report.Skipped))

	records := make([]history.OutputRecord, 0, len(report.Files))
	for _, f := range report.Files {
		records = append(records, history.OutputRecord{Path: f})
	}
	logHistory(cfg, history.OpExtract, records)
}
