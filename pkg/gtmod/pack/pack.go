// Package pack builds the .flatdata archives the game loads. Prepared
// assets are copied into a staging directory beneath the game root, a
// flatlist manifest is generated for them, and mkflat turns the pair into an
// archive that is then moved into the project's CORE output tree.
package pack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/flatlist"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
	"github.com/gtmod/gtmod/pkg/gtmod/staging"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

// ArchiveExt is the filename suffix of packed archives.
const ArchiveExt = ".flatdata"

// ErrMissingSource indicates a prepared asset disappeared between scan and
// staging. The whole job aborts rather than shipping a partial archive.
var ErrMissingSource = errors.New("prepared asset missing")

// ErrDuplicateName indicates two prepared assets would stage under the same
// filename in one archive.
var ErrDuplicateName = errors.New("duplicate asset name in archive")

// Archive reports one packed output.
type Archive struct {
	// Stem is the archive base name, e.g. "textures".
	Stem string

	// Path is the final archive location inside the project.
	Path string

	// Assets is the number of files packed.
	Assets int
}

// Packager builds flatdata archives from the prepared asset folders.
type Packager struct {
	runner starter.Runner
	cfg    *config.Config
	ws     *workspace.Workspace
	log    *logging.Logger
}

// NewPackager creates a Packager over the given invoker.
func NewPackager(runner starter.Runner, cfg *config.Config, ws *workspace.Workspace) *Packager {
	return &Packager{
		runner: runner,
		cfg:    cfg,
		ws:     ws,
		log:    logging.Get("pack"),
	}
}

// Package scans the enabled categories and builds one archive per archive
// stem. SFX and speech share the sounds archive. A stem with no prepared
// assets is skipped without error and without touching its existing archive.
// When only is non-empty it restricts which stems are built.
func (p *Packager) Package(ctx context.Context, only []string) ([]Archive, error) {
	cats := p.ws.Categories(p.cfg.Categories)

	stems := make([]string, 0, len(cats))
	byStem := make(map[string][]workspace.Asset)
	for _, cat := range cats {
		if len(only) > 0 && !slices.Contains(only, cat.Stem) {
			continue
		}
		assets, err := workspace.ScanCategory(cat)
		if err != nil {
			return nil, err
		}
		if _, seen := byStem[cat.Stem]; !seen {
			stems = append(stems, cat.Stem)
		}
		byStem[cat.Stem] = append(byStem[cat.Stem], assets...)
	}

	var packed []Archive
	for _, stem := range stems {
		assets := byStem[stem]
		if len(assets) == 0 {
			p.log.Info("no prepared assets, skipping archive", "stem", stem)
			continue
		}
		path, err := p.packArchive(ctx, stem, assets)
		if err != nil {
			return nil, fmt.Errorf("packing %s%s: %w", stem, ArchiveExt, err)
		}
		packed = append(packed, Archive{Stem: stem, Path: path, Assets: len(assets)})
	}
	return packed, nil
}

// packArchive stages one archive's assets, writes the flatlist, runs mkflat,
// and moves the result into the packed_data tree. The destination is only
// replaced after mkflat fully succeeds.
func (p *Packager) packArchive(ctx context.Context, stem string, assets []workspace.Asset) (string, error) {
	final := filepath.Join(p.ws.PackedData(), stem+ArchiveExt)

	err := staging.WithDir(p.cfg.ModworkDir(), "mkflat_"+stem, func(dir *staging.Dir) error {
		entries := make([]flatlist.Entry, 0, len(assets))
		staged := make(map[string]string, len(assets))

		for _, a := range assets {
			name := filepath.Base(a.Path)
			if prev, dup := staged[name]; dup {
				return fmt.Errorf("%w: %q staged from both %q and %q", ErrDuplicateName, name, prev, a.Path)
			}
			staged[name] = a.Path

			if _, err := os.Stat(a.Path); err != nil {
				return fmt.Errorf("%w: %q", ErrMissingSource, a.Path)
			}
			if err := dir.CopyFile(a.Path, name); err != nil {
				return err
			}
			entries = append(entries, flatlist.Entry{Name: a.Name, Type: a.Type})
		}

		listText, err := flatlist.Build(entries)
		if err != nil {
			return err
		}
		listAbs := dir.Join(stem + flatlist.Extension)
		if err := os.WriteFile(listAbs, []byte(listText), 0o644); err != nil {
			return fmt.Errorf("writing flatlist: %w", err)
		}

		outAbs := dir.Join(stem + ArchiveExt)
		outRel, err := filepath.Rel(p.cfg.GameRoot, outAbs)
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}
		listRel, err := filepath.Rel(p.cfg.GameRoot, listAbs)
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}

		if _, err := p.runner.Invoke(ctx, starter.MkFlat(outRel, listRel)); err != nil {
			return err
		}
		if _, err := os.Stat(outAbs); err != nil {
			return fmt.Errorf("mkflat reported success but produced no archive: %w", err)
		}

		return staging.MoveFile(outAbs, final)
	})
	if err != nil {
		return "", err
	}

	p.log.Info("archive packed", "stem", stem, "assets", len(assets), "path", final)
	return final, nil
}
