// Package bundle produces the distributable .gt2extension archive: a zip of
// the project's CORE tree plus the readme, named after the mod.
package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/descriptor"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

// Extension is the filename suffix of distributable mod archives.
const Extension = ".gt2extension"

// ErrDescriptorMissing indicates the project has no compiled descriptor yet,
// so the bundle would not install.
var ErrDescriptorMissing = errors.New("CORE/desc.addpack not found, package the mod first")

// Bundler zips a finished mod project for distribution.
type Bundler struct {
	cfg *config.Config
	ws  *workspace.Workspace
	log *logging.Logger
}

// NewBundler creates a Bundler for the given project.
func NewBundler(cfg *config.Config, ws *workspace.Workspace) *Bundler {
	return &Bundler{
		cfg: cfg,
		ws:  ws,
		log: logging.Get("bundle"),
	}
}

// DefaultOutputPath returns where the archive goes when no explicit output
// is given: next to the project directory, named after the mod.
func (b *Bundler) DefaultOutputPath() string {
	name := descriptor.Slug(b.cfg.Mod.Name) + Extension
	return filepath.Join(filepath.Dir(b.cfg.ProjectDir), name)
}

// Bundle writes the distributable archive to outputPath, or to the default
// location when outputPath is empty. The archive holds the CORE tree and the
// project readme; entries are sorted so identical projects produce identical
// archives. The file appears atomically via a temp file and rename.
func (b *Bundler) Bundle(outputPath string) (string, error) {
	if _, err := os.Stat(b.ws.DescriptorPath()); err != nil {
		return "", ErrDescriptorMissing
	}

	if outputPath == "" {
		outputPath = b.DefaultOutputPath()
	}
	if !strings.HasSuffix(strings.ToLower(outputPath), Extension) {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + Extension
	}

	entries, err := b.collect()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".gtmod-bundle-*")
	if err != nil {
		return "", fmt.Errorf("creating temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeZip(tmp, entries); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		return "", fmt.Errorf("moving archive into place: %w", err)
	}

	b.log.Info("bundle created", "path", outputPath, "files", len(entries))
	return outputPath, nil
}

// entry maps one file on disk to its name inside the archive.
type entry struct {
	src string
	in  string
}

// collect gathers the CORE tree and the readme, sorted by archive name.
func (b *Bundler) collect() ([]entry, error) {
	var entries []entry

	core := b.ws.Core()
	err := filepath.WalkDir(core, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(core, path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{src: path, in: filepath.ToSlash(filepath.Join("CORE", rel))})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking CORE: %w", err)
	}

	if _, err := os.Stat(b.ws.ReadmePath()); err == nil {
		entries = append(entries, entry{src: b.ws.ReadmePath(), in: workspace.ReadmeName})
	} else {
		b.log.Warn("readme.txt missing, bundling without it")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].in < entries[j].in })
	return entries, nil
}

func writeZip(w io.Writer, entries []entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		in, err := os.Open(e.src)
		if err != nil {
			return fmt.Errorf("opening %q: %w", e.src, err)
		}
		info, err := in.Stat()
		if err != nil {
			in.Close()
			return fmt.Errorf("stat %q: %w", e.src, err)
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			in.Close()
			return fmt.Errorf("zip header for %q: %w", e.src, err)
		}
		hdr.Name = e.in
		hdr.Method = zip.Deflate

		out, err := zw.CreateHeader(hdr)
		if err != nil {
			in.Close()
			return fmt.Errorf("creating zip entry %q: %w", e.in, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			return fmt.Errorf("writing zip entry %q: %w", e.in, err)
		}
		in.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}
