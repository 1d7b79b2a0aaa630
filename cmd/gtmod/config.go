package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage gtmod configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/gtmod/config.yaml (if set)
  2. ~/.config/gtmod/config.yaml

Environment variables can override config file settings using the GTMOD_ prefix:
  GTMOD_GAME_ROOT=/games/graviteam
  GTMOD_PROJECT_DIR=~/mods/winter-war
  GTMOD_UNPACK_TIMEOUT=600`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("game_root:             %s\n", cfg.GameRoot)
	fmt.Printf("project_dir:           %s\n", cfg.ProjectDir)
	fmt.Printf("mod.name:              %s\n", cfg.Mod.Name)
	fmt.Printf("mod.author:            %s\n", cfg.Mod.Author)
	fmt.Printf("mod.version:           %s\n", cfg.Mod.Version)
	fmt.Printf("categories.textures:   %t\n", cfg.Categories.Textures)
	fmt.Printf("categories.sfx:        %t\n", cfg.Categories.SFX)
	fmt.Printf("categories.speech:     %t\n", cfg.Categories.Speech)
	fmt.Printf("command_timeout:       %s\n", cfg.CommandTimeout())
	fmt.Printf("unpack_timeout:        %s\n", cfg.UnpackTimeout())
	fmt.Printf("history.enabled:       %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:          %s\n", cfg.History.Path)
	fmt.Printf("history.retention:     %d days\n", cfg.History.RetentionDays)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"GTMOD_GAME_ROOT",
		"GTMOD_PROJECT_DIR",
		"GTMOD_MOD_NAME",
		"GTMOD_MOD_AUTHOR",
		"GTMOD_MOD_VERSION",
		"GTMOD_COMMAND_TIMEOUT",
		"GTMOD_UNPACK_TIMEOUT",
		"GTMOD_HISTORY_ENABLED",
		"GTMOD_HISTORY_RETENTION_DAYS",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'gtmod config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	printInfo("Set game_root and project_dir before running pipeline commands.")
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
