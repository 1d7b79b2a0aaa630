// Package logging provides component loggers for gtmod.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("pack")
//	logger.Info("archive created", "path", out)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// ConsoleLevel enables stderr output at the specified level.
	// Empty string disables console output.
	ConsoleLevel string

	// Components maps component names to level overrides.
	Components map[string]string
}

// Logger writes to the log file and, when enabled, the console.
type Logger struct {
	file    *log.Logger
	console *log.Logger // nil unless console output is enabled
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a new logger with additional context.
func (l *Logger) With(args ...interface{}) *Logger {
	out := &Logger{file: l.file.With(args...)}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

type state struct {
	mu          sync.Mutex
	initialized bool
	logFile     *os.File
	level       log.Level
	components  map[string]log.Level
	loggers     map[string]*Logger

	consoleEnabled bool
	consoleLevel   log.Level
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]log.Level),
}

// Init initializes the logging system. Before Init is called, loggers write
// to io.Discard.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.initialized && globalState.logFile != nil {
		if err := globalState.logFile.Close(); err != nil {
			return fmt.Errorf("closing existing log file: %w", err)
		}
		globalState.logFile = nil
	}
	globalState.loggers = make(map[string]*Logger)
	globalState.components = make(map[string]log.Level)

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	globalState.level = level

	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		globalState.components[comp] = parsed
	}

	globalState.consoleEnabled = false
	if cfg.ConsoleLevel != "" {
		consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		globalState.consoleLevel = consoleLevel
		globalState.consoleEnabled = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	globalState.logFile = f

	globalState.initialized = true
	return nil
}

// Get returns a logger for the given component. Component level overrides
// from the config apply; otherwise the default level is used.
func (s *state) get(component string) *Logger {
	if logger, ok := s.loggers[component]; ok {
		return logger
	}

	level := s.level
	if compLevel, ok := s.components[component]; ok {
		level = compLevel
	}

	var fileOut io.Writer = io.Discard
	if s.initialized {
		fileOut = s.logFile
	}
	logger := &Logger{
		file: log.NewWithOptions(fileOut, log.Options{
			Level:           level,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}

	if s.initialized && s.consoleEnabled {
		logger.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           s.consoleLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	s.loggers[component] = logger
	return logger
}

// Get returns a logger for the given component.
func Get(component string) *Logger {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	return globalState.get(component)
}

// Close flushes and closes the log file. It should be called on exit.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}
	if globalState.logFile != nil {
		if err := globalState.logFile.Close(); err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
		globalState.logFile = nil
	}
	globalState.initialized = false
	globalState.loggers = make(map[string]*Logger)
	globalState.components = make(map[string]log.Level)
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/gtmod/gtmod.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "gtmod", "gtmod.log")
}
