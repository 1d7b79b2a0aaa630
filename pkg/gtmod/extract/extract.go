// Package extract unpacks game flatdata archives into the mod project so
// original assets can be studied and reworked. Texture archives are
// additionally converted to .dds, sound archives get their files renamed to
// .aaf for use in ordinary audio tools.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
	"github.com/gtmod/gtmod/pkg/gtmod/staging"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

// ErrArchiveNotFound indicates a named archive exists in none of the known
// game data locations.
var ErrArchiveNotFound = errors.New("archive not found in game data")

// gameDataDir is the archive tree inside the game installation.
var gameDataDir = filepath.Join("data", "k43t")

// soundSuffixes are the file endings recognized inside sound archives.
var soundSuffixes = []string{".loc_def.sound", ".sound", ".aaf"}

// Report summarizes one extraction run.
type Report struct {
	// Files lists extracted files as <archive>/<name> relative paths.
	Files []string

	// Skipped lists archives that could not be located or unpacked.
	Skipped []string
}

// FindArchive locates a flatdata archive by name, returning its path
// relative to the game root. The shared data folder is searched first, then
// the localization folders. Speech archives named for a language prefer that
// language's folder.
func FindArchive(gameRoot, name string) (string, error) {
	shared := filepath.Join(gameDataDir, "shared", "packed_data", name)
	if _, err := os.Stat(filepath.Join(gameRoot, shared)); err == nil {
		return shared, nil
	}

	locs := []string{"loc_eng", "loc_rus", "loc_ger", "loc_def"}
	if lower := strings.ToLower(name); strings.Contains(lower, "speech") {
		lang := strings.TrimSuffix(strings.TrimPrefix(lower, "speech_"), ".flatdata")
		switch lang {
		case "eng", "rus", "ger":
			locs = append([]string{"loc_" + lang, "loc_def"}, locs...)
		default:
			locs = []string{"loc_def", "loc_eng", "loc_rus", "loc_ger"}
		}
	}

	for _, loc := range locs {
		rel := filepath.Join(gameDataDir, loc, "packed_data", name)
		if _, err := os.Stat(filepath.Join(gameRoot, rel)); err == nil {
			return rel, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrArchiveNotFound, name)
}

// Extractor unpacks game archives into a mod project.
type Extractor struct {
	runner starter.Runner
	cfg    *config.Config
	ws     *workspace.Workspace
	log    *logging.Logger
}

// NewExtractor creates an Extractor over the given invoker.
func NewExtractor(runner starter.Runner, cfg *config.Config, ws *workspace.Workspace) *Extractor {
	return &Extractor{
		runner: runner,
		cfg:    cfg,
		ws:     ws,
		log:    logging.Get("extract"),
	}
}

// Textures unpacks the named texture archives. Each contained .texture file
// is kept under extracted_game_textures/atf/<archive>/ and converted to .dds
// under extracted_game_textures/dds/<archive>/. With deleteATF the original
// files are removed again after successful conversion, leaving only the .dds
// tree. Archives that cannot be located or unpacked are skipped.
func (e *Extractor) Textures(ctx context.Context, archives []string, deleteATF bool) (*Report, error) {
	report := &Report{}
	for _, name := range archives {
		if err := e.textureArchive(ctx, name, deleteATF, report); err != nil {
			e.log.Warn("skipping texture archive", "archive", name, "error", err)
			report.Skipped = append(report.Skipped, name)
		}
	}
	return report, nil
}

func (e *Extractor) textureArchive(ctx context.Context, name string, deleteATF bool, report *Report) error {
	archiveRel, err := FindArchive(e.cfg.GameRoot, name)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))

	return staging.WithDir(e.cfg.ModworkDir(), "unflat_tex_"+base, func(dir *staging.Dir) error {
		unpacked, err := e.unflat(ctx, archiveRel, dir)
		if err != nil {
			return err
		}

		atfDir := filepath.Join(e.ws.ExtractedATF(), base)
		ddsDir := filepath.Join(e.ws.ExtractedDDS(), base)
		for _, d := range []string{atfDir, ddsDir} {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("creating %q: %w", d, err)
			}
		}

		entries, err := os.ReadDir(unpacked)
		if err != nil {
			return fmt.Errorf("reading unpacked archive: %w", err)
		}

		var converted []string
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".texture") {
				continue
			}
			srcAbs := filepath.Join(unpacked, entry.Name())
			atfDest := filepath.Join(atfDir, entry.Name())
			if err := copyFile(srcAbs, atfDest); err != nil {
				e.log.Warn("could not keep original texture", "file", entry.Name(), "error", err)
				continue
			}

			ddsName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())) + ".dds"
			srcRel, err := filepath.Rel(e.cfg.GameRoot, srcAbs)
			if err != nil {
				return fmt.Errorf("resolving staging path: %w", err)
			}
			ddsStagedAbs := dir.Join(ddsName)
			ddsStagedRel, err := filepath.Rel(e.cfg.GameRoot, ddsStagedAbs)
			if err != nil {
				return fmt.Errorf("resolving staging path: %w", err)
			}

			if _, err := e.runner.Invoke(ctx, starter.ATF2DDS(srcRel, ddsStagedRel)); err != nil {
				e.log.Warn("texture conversion failed", "file", entry.Name(), "error", err)
				continue
			}
			if err := copyFile(ddsStagedAbs, filepath.Join(ddsDir, ddsName)); err != nil {
				e.log.Warn("could not copy converted texture", "file", ddsName, "error", err)
				continue
			}

			converted = append(converted, atfDest)
			report.Files = append(report.Files, filepath.Join(base, ddsName))
		}

		if deleteATF {
			for _, atf := range converted {
				if err := os.Remove(atf); err != nil {
					e.log.Warn("could not delete original texture", "file", atf, "error", err)
				}
			}
			// Drop the per-archive atf folder when nothing is left in it.
			if rest, err := os.ReadDir(atfDir); err == nil && len(rest) == 0 {
				_ = os.Remove(atfDir)
			}
		}
		return nil
	})
}

// Sounds unpacks the named sound archives into extracted_game_sounds. Files
// in the game's .loc_def.sound format are renamed to .aaf. Archives that
// cannot be located or unpacked are skipped.
func (e *Extractor) Sounds(ctx context.Context, archives []string) (*Report, error) {
	report := &Report{}
	for _, name := range archives {
		if err := e.soundArchive(ctx, name, report); err != nil {
			e.log.Warn("skipping sound archive", "archive", name, "error", err)
			report.Skipped = append(report.Skipped, name)
		}
	}
	return report, nil
}

func (e *Extractor) soundArchive(ctx context.Context, name string, report *Report) error {
	archiveRel, err := FindArchive(e.cfg.GameRoot, name)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))

	return staging.WithDir(e.cfg.ModworkDir(), "unflat_sound_"+base, func(dir *staging.Dir) error {
		unpacked, err := e.unflat(ctx, archiveRel, dir)
		if err != nil {
			return err
		}

		destDir := filepath.Join(e.ws.ExtractedSounds(), base)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", destDir, err)
		}

		entries, err := os.ReadDir(unpacked)
		if err != nil {
			return fmt.Errorf("reading unpacked archive: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isSoundFile(entry.Name()) {
				continue
			}
			destName := entry.Name()
			if lower := strings.ToLower(destName); strings.HasSuffix(lower, ".loc_def.sound") {
				destName = destName[:len(destName)-len(".loc_def.sound")] + ".aaf"
			}
			if err := copyFile(filepath.Join(unpacked, entry.Name()), filepath.Join(destDir, destName)); err != nil {
				e.log.Warn("could not copy sound file", "file", entry.Name(), "error", err)
				continue
			}
			report.Files = append(report.Files, filepath.Join(base, destName))
		}
		return nil
	})
}

// unflat unpacks an archive into a subdirectory of the staging dir and
// returns the unpacked tree's absolute path. Unpacking large archives takes
// minutes, so the dedicated unpack timeout applies.
func (e *Extractor) unflat(ctx context.Context, archiveRel string, dir *staging.Dir) (string, error) {
	destAbs := dir.Join("unpacked")
	destRel, err := filepath.Rel(e.cfg.GameRoot, destAbs)
	if err != nil {
		return "", fmt.Errorf("resolving staging path: %w", err)
	}

	cmd := starter.Unflat(archiveRel, destRel)
	cmd.Timeout = e.cfg.UnpackTimeout()
	res, err := e.runner.Invoke(ctx, cmd)
	if err != nil {
		return "", err
	}

	out := res.OutputPath
	if out == "" {
		out = destAbs
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		return "", fmt.Errorf("unflat reported success but produced no output at %q", out)
	}
	return out, nil
}

func isSoundFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range soundSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
