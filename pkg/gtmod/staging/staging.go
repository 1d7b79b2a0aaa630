// Package staging manages temporary staging directories under the game's
// writable modwork area. Every staging directory in the pipeline is created
// through WithDir, which guarantees removal on all exit paths.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
)

// ErrEmptyRoot indicates no staging root directory was provided.
var ErrEmptyRoot = errors.New("staging root cannot be empty")

// Dir is a uniquely named temporary directory owned by a single operation.
type Dir struct {
	// Path is the absolute path of the staging directory.
	Path string
}

// New creates a staging directory under root. The directory name embeds the
// hint plus a timestamp and a random fragment, so rapid repeated or
// concurrent invocations cannot collide.
func New(root, hint string) (*Dir, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}

	name := fmt.Sprintf("_stage_%s_%s_%s",
		sanitizeHint(hint),
		time.Now().Format("20060102150405"),
		uuid.NewString()[:8],
	)
	path := filepath.Join(root, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	return &Dir{Path: path}, nil
}

// Remove deletes the staging directory and all contents.
func (d *Dir) Remove() error {
	if err := os.RemoveAll(d.Path); err != nil {
		return fmt.Errorf("removing staging directory %q: %w", d.Path, err)
	}
	return nil
}

// Join returns the path of name inside the staging directory.
func (d *Dir) Join(name string) string {
	return filepath.Join(d.Path, name)
}

// WithDir creates a staging directory, runs fn, and removes the directory on
// every exit path including panics. Removal failures are logged, never
// returned; a leftover staging directory must not fail an otherwise
// successful operation.
func WithDir(root, hint string, fn func(*Dir) error) error {
	dir, err := New(root, hint)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := dir.Remove(); rmErr != nil {
			logging.Get("staging").Warn("could not remove staging directory", "path", dir.Path, "error", rmErr)
		}
	}()

	return fn(dir)
}

// CopyFile copies src into the staging directory under name, preserving the
// source's modification time.
func (d *Dir) CopyFile(src, name string) error {
	dst := d.Join(name)

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %q: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %q: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserving mtime of %q: %w", dst, err)
	}
	return nil
}

// MoveFile moves src to dst, creating dst's parent directory. A plain rename
// is tried first; when src and dst sit on different volumes the file is
// copied and the source removed.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %q: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %q: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %q: %w", src, err)
	}
	return nil
}

// sanitizeHint keeps hints path-safe.
func sanitizeHint(hint string) string {
	hint = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, hint)
	if hint == "" {
		hint = "work"
	}
	return hint
}
