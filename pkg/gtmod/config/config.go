// Package config loads and validates gtmod configuration.
//
// All settings live in an explicit Config struct that callers pass into
// component constructors; no package in this repository reads configuration
// from process-wide state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Defaults applied when the config file or a field is absent.
const (
	DefaultModName    = "MyMod"
	DefaultModAuthor  = "Modder"
	DefaultModVersion = "100"

	// DefaultCommandTimeout bounds ordinary starter.exe invocations.
	DefaultCommandTimeout = 120 * time.Second

	// DefaultUnpackTimeout bounds unflat runs, which can take minutes on
	// large archives.
	DefaultUnpackTimeout = 300 * time.Second

	DefaultRetentionDays = 90
)

// StarterExeName is the vendor command-line utility shipped in the game root.
const StarterExeName = "starter.exe"

// ErrGameRootNotSet indicates that no game root directory is configured.
var ErrGameRootNotSet = errors.New("game root directory is not set")

// ErrProjectDirNotSet indicates that no mod project directory is configured.
var ErrProjectDirNotSet = errors.New("mod project directory is not set")

// ModInfo describes the mod being built. It feeds the descriptor and the
// readme.
type ModInfo struct {
	Name    string `mapstructure:"name"`
	Author  string `mapstructure:"author"`
	Version string `mapstructure:"version"`
}

// CategoriesConfig toggles which asset categories the pipeline handles.
type CategoriesConfig struct {
	Textures bool `mapstructure:"textures"`
	SFX      bool `mapstructure:"sfx"`
	Speech   bool `mapstructure:"speech"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Components   map[string]string `mapstructure:"components"`
}

// HistoryConfig configures the operation history log.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	// GameRoot is the game installation directory containing starter.exe.
	GameRoot string `mapstructure:"game_root"`

	// ProjectDir is the mod project workspace directory.
	ProjectDir string `mapstructure:"project_dir"`

	Mod        ModInfo          `mapstructure:"mod"`
	Categories CategoriesConfig `mapstructure:"categories"`

	// CommandTimeoutSec and UnpackTimeoutSec bound starter.exe runs, in
	// seconds.
	CommandTimeoutSec int `mapstructure:"command_timeout"`
	UnpackTimeoutSec  int `mapstructure:"unpack_timeout"`

	Logging LoggingConfig `mapstructure:"logging"`
	History HistoryConfig `mapstructure:"history"`
}

// StarterExe returns the full path of the vendor executable, or empty when
// no game root is configured.
func (c *Config) StarterExe() string {
	if c.GameRoot == "" {
		return ""
	}
	return filepath.Join(c.GameRoot, StarterExeName)
}

// ModworkDir returns the writable workspace inside the game root where
// staging directories are created. The vendor tool resolves relative paths
// against the game root, so staging must live beneath it.
func (c *Config) ModworkDir() string {
	if c.GameRoot == "" {
		return ""
	}
	return filepath.Join(c.GameRoot, "users", "modwork")
}

// CommandTimeout returns the configured default command timeout.
func (c *Config) CommandTimeout() time.Duration {
	if c.CommandTimeoutSec <= 0 {
		return DefaultCommandTimeout
	}
	return time.Duration(c.CommandTimeoutSec) * time.Second
}

// UnpackTimeout returns the configured unflat timeout.
func (c *Config) UnpackTimeout() time.Duration {
	if c.UnpackTimeoutSec <= 0 {
		return DefaultUnpackTimeout
	}
	return time.Duration(c.UnpackTimeoutSec) * time.Second
}

// ValidateGameRoot checks that the game root exists and contains the vendor
// executable.
func (c *Config) ValidateGameRoot() error {
	if c.GameRoot == "" {
		return ErrGameRootNotSet
	}
	info, err := os.Stat(c.GameRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("game root %q is not a directory", c.GameRoot)
	}
	if _, err := os.Stat(c.StarterExe()); err != nil {
		return fmt.Errorf("%s not found in game root %q", StarterExeName, c.GameRoot)
	}
	return nil
}

// ValidateProjectDir checks that a project directory is configured. The
// directory itself may not exist yet; `gtmod init` creates it.
func (c *Config) ValidateProjectDir() error {
	if c.ProjectDir == "" {
		return ErrProjectDirNotSet
	}
	return nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/gtmod/config.yaml
//   - $HOME/.config/gtmod/config.yaml
//
// Environment variables are prefixed with GTMOD_ (e.g., GTMOD_GAME_ROOT).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "gtmod"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "gtmod"))

	v.SetEnvPrefix("GTMOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in the path settings
	for _, p := range []*string{&cfg.GameRoot, &cfg.ProjectDir, &cfg.History.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// setDefaults registers defaults on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("game_root", "")
	v.SetDefault("project_dir", "")
	v.SetDefault("mod.name", DefaultModName)
	v.SetDefault("mod.author", DefaultModAuthor)
	v.SetDefault("mod.version", DefaultModVersion)
	v.SetDefault("categories.textures", true)
	v.SetDefault("categories.sfx", true)
	v.SetDefault("categories.speech", true)
	v.SetDefault("command_timeout", int(DefaultCommandTimeout/time.Second))
	v.SetDefault("unpack_timeout", int(DefaultUnpackTimeout/time.Second))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.components", map[string]string{})
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "gtmod"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "gtmod"), nil
}

// HistoryDir returns the default directory for history entries.
func HistoryDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ".history"), nil
}

// StateDir returns $XDG_STATE_HOME/gtmod/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "gtmod")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "gtmod.log")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# gtmod configuration

# Game installation directory (the folder containing starter.exe)
game_root: ""

# Mod project workspace directory
project_dir: ""

# Mod metadata used for desc.addpack and readme.txt
mod:
  name: %s
  author: %s
  version: "%s"

# Asset categories handled by packaging
categories:
  textures: true
  sfx: true
  speech: true

# starter.exe timeouts in seconds
command_timeout: %d
unpack_timeout: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means $XDG_STATE_HOME/gtmod/gtmod.log)
  path: ""
  # Console output level (empty disables console logging)
  console_level: ""

# Operation history settings
history:
  enabled: true
  path: ""
  retention_days: %d
`,
		DefaultModName, DefaultModAuthor, DefaultModVersion,
		int(DefaultCommandTimeout/time.Second), int(DefaultUnpackTimeout/time.Second),
		DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
