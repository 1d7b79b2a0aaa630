package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "gtmod",
		Short: "Build and package Graviteam mods",
		Long: `Gtmod drives the game's asset pipeline from the command line: it unpacks
game archives, converts assets between game and editable formats, and
packages a mod project into installable archives.

All heavy lifting is done by starter.exe in the game installation; gtmod
stages files, invokes it, and collects the results.

Examples:
  gtmod init                        # Create the mod project folder layout
  gtmod assets                      # List prepared assets ready for packaging
  gtmod extract textures tex_main.flatdata
  gtmod convert dds2atf dds_work/hull.dds
  gtmod package                     # Build desc.addpack and flatdata archives
  gtmod bundle                      # Produce the distributable .gt2extension`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/gtmod/config.yaml)")
	rootCmd.PersistentFlags().StringP("game-root", "g", "", "game installation directory containing starter.exe")
	rootCmd.PersistentFlags().StringP("project", "p", "", "mod project directory")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("game_root", rootCmd.PersistentFlags().Lookup("game-root"))
	_ = viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "gtmod"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "gtmod"))
		}
	}

	viper.SetEnvPrefix("GTMOD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("game_root"); v != "" {
		cfg.GameRoot = v
	}
	if v := viper.GetString("project_dir"); v != "" {
		cfg.ProjectDir = v
	}
	return cfg, nil
}

// setupLogging initializes logging per the configuration. Verbose output
// also mirrors debug logs to the console.
func setupLogging(cfg *config.Config) error {
	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		ConsoleLevel: cfg.Logging.ConsoleLevel,
		Components:   cfg.Logging.Components,
	}
	if logCfg.Level == "" {
		logCfg.Level = "info"
	}
	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}
	return logging.Init(logCfg)
}

// bootstrap loads the configuration, initializes logging, and returns the
// pieces every pipeline command needs.
func bootstrap(requireGameRoot bool) (*config.Config, *workspace.Workspace, *starter.Starter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := cfg.ValidateProjectDir(); err != nil {
		return nil, nil, nil, err
	}
	if requireGameRoot {
		if err := cfg.ValidateGameRoot(); err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, workspace.New(cfg.ProjectDir), starter.New(cfg), nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
