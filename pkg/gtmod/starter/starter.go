// Package starter invokes the vendor command-line utility shipped with the
// game. Every pipeline operation ultimately shells out through this package.
//
// The utility takes a single composite argument ("<command>,<param>,...")
// and must run with the game root as its working directory. Exit code zero
// is the sole success signal; stdout and stderr are advisory text that is
// captured for diagnostics and never parsed.
package starter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
)

// ErrNotConfigured indicates the game root or starter.exe is missing; no
// process was spawned.
var ErrNotConfigured = errors.New("game root or starter.exe not configured")

// ErrCommandFailed indicates a non-zero exit code.
var ErrCommandFailed = errors.New("starter command failed")

// ErrTimeout indicates the command exceeded its deadline and was killed.
var ErrTimeout = errors.New("starter command timed out")

// Result reports a completed invocation.
type Result struct {
	// Stdout and Stderr hold the captured process output, for logging only.
	Stdout string
	Stderr string

	// OutputPath is the resolved absolute path of the unpack destination.
	// Set only for successful unflat commands.
	OutputPath string
}

// Runner abstracts command invocation so orchestrators can be tested
// without the vendor executable.
type Runner interface {
	Invoke(ctx context.Context, cmd Command) (*Result, error)
}

// Starter runs commands against a configured game installation.
type Starter struct {
	root           string
	exe            string
	defaultTimeout time.Duration
	log            *logging.Logger
}

// New creates a Starter for the configured game root. The configuration is
// validated at invoke time, not here, so a Starter can be constructed before
// the user has pointed gtmod at a game installation.
func New(cfg *config.Config) *Starter {
	return &Starter{
		root:           cfg.GameRoot,
		exe:            cfg.StarterExe(),
		defaultTimeout: cfg.CommandTimeout(),
		log:            logging.Get("starter"),
	}
}

// Root returns the configured game root directory.
func (s *Starter) Root() string {
	return s.root
}

// Invoke runs one command and waits for it to finish. The command's timeout
// (or the configured default) bounds the wait; on expiry the process is
// killed and ErrTimeout is returned. Partial output files the process left
// behind are not cleaned up here; callers own their staging directories.
func (s *Starter) Invoke(ctx context.Context, cmd Command) (*Result, error) {
	if s.root == "" || s.exe == "" {
		return nil, ErrNotConfigured
	}
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: game root %q is not a directory", ErrNotConfigured, s.root)
	}
	if _, err := os.Stat(s.exe); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNotConfigured, s.exe)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	arg := cmd.wire()
	s.log.Debug("running command", "exe", s.exe, "arg", arg, "cwd", s.root)

	proc := exec.CommandContext(ctx, s.exe, arg)
	proc.Dir = s.root

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	runErr := proc.Run()

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if res.Stdout != "" {
		s.log.Debug("command output", "command", cmd.Name, "stdout", res.Stdout)
	}
	if res.Stderr != "" {
		s.log.Debug("command stderr", "command", cmd.Name, "stderr", res.Stderr)
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.log.Error("command timed out", "command", cmd.Name, "timeout", timeout)
			return res, fmt.Errorf("%w: %s after %s", ErrTimeout, cmd.Name, timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			s.log.Error("command failed", "command", cmd.Name, "exit", exitErr.ExitCode())
			return res, fmt.Errorf("%w: %s exited with code %d", ErrCommandFailed, cmd.Name, exitErr.ExitCode())
		}
		return res, fmt.Errorf("running %s: %w", cmd.Name, runErr)
	}

	// unflat reports its destination back so the caller can consume the
	// unpacked tree.
	if cmd.Name == CmdUnflat && len(cmd.Params) > 1 && cmd.Params[1] != "" {
		res.OutputPath = filepath.Join(s.root, cmd.Params[1])
	}

	s.log.Info("command finished", "command", cmd.Name)
	return res, nil
}
