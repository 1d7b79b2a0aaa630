// Package convert wraps the vendor format converters (atf2dds, dds2atf,
// wav2aaf). Each source file is copied into a staging directory beneath the
// game root, converted there, and the output moved into the right project
// folder. Files convert independently; one failure does not stop the rest.
package convert

import (
	"context"
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

// Outcome reports one source file's conversion.
type Outcome struct {
	// Source is the input file as given by the caller.
	Source string

	// Output is the converted file's final location. Empty on failure.
	Output string

	// Err is the conversion failure, nil on success.
	Err error
}

// Converter runs vendor format conversions into a mod project.
type Converter struct {
	runner starter.Runner
	cfg    *config.Config
	ws     *workspace.Workspace
	log    *logging.Logger
}

// NewConverter creates a Converter over the given invoker.
func NewConverter(runner starter.Runner, cfg *config.Config, ws *workspace.Workspace) *Converter {
	return &Converter{
		runner: runner,
		cfg:    cfg,
		ws:     ws,
		log:    logging.Get("convert"),
	}
}

// ATF2DDS converts .texture files to .dds in the dds_work folder.
func (c *Converter) ATF2DDS(ctx context.Context, sources []string) []Outcome {
	return c.each(ctx, "atf2dds", sources, c.ws.DDSWork(), func(base string) string {
		return base + ".dds"
	}, starter.ATF2DDS)
}

// DDS2ATF converts edited .dds files to .texture in the prepared_textures
// folder, ready for packaging.
func (c *Converter) DDS2ATF(ctx context.Context, sources []string) []Outcome {
	return c.each(ctx, "dds2atf", sources, c.ws.PreparedTextures(), func(base string) string {
		return base + ".texture"
	}, starter.DDS2ATF)
}

// Wav2AAF converts .wav files to the game sound format in the prepared
// sounds folder for the chosen category.
func (c *Converter) Wav2AAF(ctx context.Context, sources []string, speech bool) []Outcome {
	dest := c.ws.PreparedSFX()
	if speech {
		dest = c.ws.PreparedSpeech()
	}
	return c.each(ctx, "wav2aaf", sources, dest, func(base string) string {
		return base + ".loc_def.sound"
	}, starter.Wav2AAF)
}

// each converts every source through one vendor command. Each file gets its
// own staging directory so a stuck conversion cannot poison the next one.
func (c *Converter) each(ctx context.Context, hint string, sources []string, destDir string,
	outName func(base string) string, cmd func(srcRel, destRel string) starter.Command) []Outcome {

	outcomes := make([]Outcome, 0, len(sources))
	for _, src := range sources {
		out, err := c.one(ctx, hint, src, destDir, outName, cmd)
		if err != nil {
			c.log.Error("conversion failed", "source", src, "error", err)
			outcomes = append(outcomes, Outcome{Source: src, Err: err})
			continue
		}
		c.log.Info("converted", "source", src, "output", out)
		outcomes = append(outcomes, Outcome{Source: src, Output: out})
	}
	return outcomes
}

func (c *Converter) one(ctx context.Context, hint, src, destDir string,
	outName func(base string) string, cmd func(srcRel, destRel string) starter.Command) (string, error) {

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	outFile := outName(base)
	final := filepath.Join(destDir, outFile)

	err := staging.WithDir(c.cfg.ModworkDir(), hint, func(dir *staging.Dir) error {
		// The vendor tool resolves paths against the game root, so the
		// source is staged beneath it first.
		if err := dir.CopyFile(src, filepath.Base(src)); err != nil {
			return err
		}

		srcRel, err := filepath.Rel(c.cfg.GameRoot, dir.Join(filepath.Base(src)))
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}
		outAbs := dir.Join(outFile)
		outRel, err := filepath.Rel(c.cfg.GameRoot, outAbs)
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}

		if _, err := c.runner.Invoke(ctx, cmd(srcRel, outRel)); err != nil {
			return err
		}
		if _, err := os.Stat(outAbs); err != nil {
			return fmt.Errorf("converter reported success but produced no output: %w", err)
		}

		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", destDir, err)
		}
		return staging.MoveFile(outAbs, final)
	})
	if err != nil {
		return "", err
	}
	return final, nil
}
