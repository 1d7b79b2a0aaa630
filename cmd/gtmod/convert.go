package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/convert"
	"github.com/gtmod/gtmod/pkg/gtmod/history"
)

var convertSpeech bool

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert assets between game and editable formats",
	Long: `Convert asset files using the game's own converters. Outputs land in
the right project folder for the next pipeline step:

  atf2dds   .texture -> .dds            into dds_work/
  dds2atf   .dds     -> .texture        into prepared_textures/
  wav2aaf   .wav     -> .loc_def.sound  into prepared_sounds/`,
}

var convertATF2DDSCmd = &cobra.Command{
	Use:   "atf2dds <file>...",
	Short: "Convert .texture files to DDS for editing",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvertATF2DDS,
}

var convertDDS2ATFCmd = &cobra.Command{
	Use:   "dds2atf <file>...",
	Short: "Convert edited DDS files to .texture for packaging",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvertDDS2ATF,
}

var convertWav2AAFCmd = &cobra.Command{
	Use:   "wav2aaf <file>...",
	Short: "Convert WAV files to the game sound format",
	Long: `Convert .wav files to the game's sound format. Outputs go to
prepared_sounds/sfx by default, or prepared_sounds/speech with --speech.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvertWav2AAF,
}

func init() {
	convertWav2AAFCmd.Flags().BoolVar(&convertSpeech, "speech", false, "treat inputs as speech rather than sound effects")

	convertCmd.AddCommand(convertATF2DDSCmd)
	convertCmd.AddCommand(convertDDS2ATFCmd)
	convertCmd.AddCommand(convertWav2AAFCmd)
	rootCmd.AddCommand(convertCmd)
}

func runConvertATF2DDS(cmd *cobra.Command, args []string) error {
	return runConversion(cmd, args, func(c *convert.Converter) []convert.Outcome {
		return c.ATF2DDS(cmd.Context(), args)
	})
}

func runConvertDDS2ATF(cmd *cobra.Command, args []string) error {
	return runConversion(cmd, args, func(c *convert.Converter) []convert.Outcome {
		return c.DDS2ATF(cmd.Context(), args)
	})
}

func runConvertWav2AAF(cmd *cobra.Command, args []string) error {
	return runConversion(cmd, args, func(c *convert.Converter) []convert.Outcome {
		return c.Wav2AAF(cmd.Context(), args, convertSpeech)
	})
}

// runConversion drives one converter over the argument files and reports
// per-file results. The command fails when nothing converted successfully.
func runConversion(cmd *cobra.Command, args []string, fn func(*convert.Converter) []convert.Outcome) error {
	cfg, ws, runner, err := bootstrap(true)
	if err != nil {
		return err
	}
	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return err
	}

	outcomes := fn(convert.NewConverter(runner, cfg, ws))

	var records []history.OutputRecord
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			printError("%s: %v", o.Source, o.Err)
			failed++
			continue
		}
		printInfo("%s -> %s", o.Source, o.Output)
		rec := history.OutputRecord{Path: o.Output}
		if info, err := os.Stat(o.Output); err == nil {
			rec.Size = info.Size()
		}
		records = append(records, rec)
	}

	logHistory(cfg, history.OpConvert, records)

	printInfo("Converted %d of %d file(s).", len(outcomes)-failed, len(outcomes))
	if failed == len(outcomes) {
		return fmt.Errorf("all %d conversion(s) failed", failed)
	}
	return nil
}
