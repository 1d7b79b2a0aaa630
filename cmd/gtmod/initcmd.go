package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the mod project folder layout",
	Long: `Create the standard mod project folder structure in the configured
project directory: work folders for textures and sounds, extraction trees,
and the CORE output tree. A template readme.txt is created on first run.

Running init on an existing project is safe; existing files are never
touched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit creates the project layout.
func runInit(cmd *cobra.Command, args []string) error {
	cfg, ws, _, err := bootstrap(false)
	if err != nil {
		return err
	}

	if err := ws.EnsureLayout(cfg.Mod); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	printInfo("Initialized mod project at %s", cfg.ProjectDir)
	printInfo("Put finished .texture files in prepared_textures/ and sounds in prepared_sounds/.")
	return nil
}
