// Package descriptor generates the compiled mod descriptor (desc.addpack)
// the game installer reads. The text form is produced by substituting mod
// metadata into the stencil template shipped with the game, then compiled to
// the binary form with pd2cfgp.
package descriptor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
	"github.com/gtmod/gtmod/pkg/gtmod/staging"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

// TemplateName is the stencil template file shipped with the game.
const TemplateName = "desc_example.addpack.engcfg2"

// ErrTemplateRead indicates the stencil template is missing or undecodable.
var ErrTemplateRead = errors.New("cannot read descriptor template")

// Template placeholders used by the vendor stencil.
const (
	placeholderPath   = "<my_updates>"
	placeholderName   = "<My Addon>"
	placeholderAuthor = "<Vasya Pupkin>"
)

var (
	versionRe = regexp.MustCompile(`version\[u\]\s*=\s*\d+`)
	typeRe    = regexp.MustCompile(`type\[\*\]\s*=\s*\w+;`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// TemplatePath returns the stencil template location inside the game
// installation.
func TemplatePath(gameRoot string) string {
	return filepath.Join(gameRoot, "docs", "modwork", "stencil", TemplateName)
}

// ReadTemplate loads the stencil template, which ships in varying encodings
// depending on the game edition. A UTF-8 BOM is honored first, then plain
// UTF-8, then Windows-1251 and Latin-1.
func ReadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}

	if bom := []byte{0xEF, 0xBB, 0xBF}; bytes.HasPrefix(data, bom) {
		return string(data[len(bom):]), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil {
		return string(decoded), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable template %q", ErrTemplateRead, path)
	}
	return string(decoded), nil
}

// Slug derives a filesystem-safe name from the mod name for installer paths
// and archive filenames. Unsafe characters become underscores, whitespace
// runs collapse to single underscores, and an empty result falls back to the
// default mod name.
func Slug(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return '_'
		}
	}, name)
	mapped = spaceRe.ReplaceAllString(strings.TrimSpace(mapped), "_")
	if mapped == "" {
		return config.DefaultModName
	}
	return mapped
}

// Render substitutes mod metadata into the template text. The installer path
// becomes mods/<slug>, the version line is rewritten, and the addon type is
// normalized to RES unless the template already declares ADDN or CAMP.
func Render(template string, info config.ModInfo) string {
	name := info.Name
	if name == "" {
		name = config.DefaultModName
	}
	author := info.Author
	if author == "" {
		author = config.DefaultModAuthor
	}
	version := info.Version
	if version == "" {
		version = config.DefaultModVersion
	}

	out := strings.ReplaceAll(template, placeholderPath, "mods/"+Slug(name))
	out = strings.ReplaceAll(out, placeholderName, name)
	out = strings.ReplaceAll(out, placeholderAuthor, author)
	out = versionRe.ReplaceAllString(out, "version[u] = "+version)

	switch {
	case !strings.Contains(out, "type[*] ="):
		out += "\ntype[*] = RES;\n"
	case strings.Contains(out, "type[*] = ADDN"), strings.Contains(out, "type[*] = CAMP"):
		// Keep addon and campaign types as declared.
	default:
		out = typeRe.ReplaceAllString(out, "type[*] = RES;")
	}
	return out
}

// Generator produces the compiled descriptor for a mod project.
type Generator struct {
	runner starter.Runner
	cfg    *config.Config
	ws     *workspace.Workspace
	log    *logging.Logger
}

// NewGenerator creates a Generator over the given invoker.
func NewGenerator(runner starter.Runner, cfg *config.Config, ws *workspace.Workspace) *Generator {
	return &Generator{
		runner: runner,
		cfg:    cfg,
		ws:     ws,
		log:    logging.Get("descriptor"),
	}
}

// Generate renders the descriptor text, compiles it with pd2cfgp in a
// staging directory, and moves the result to CORE/desc.addpack. The
// destination is only touched after a fully successful compile.
func (g *Generator) Generate(ctx context.Context) error {
	template, err := ReadTemplate(TemplatePath(g.cfg.GameRoot))
	if err != nil {
		return err
	}
	rendered := Render(template, g.cfg.Mod)

	return staging.WithDir(g.cfg.ModworkDir(), "desc", func(dir *staging.Dir) error {
		srcAbs := dir.Join("desc.addpack.engcfg2")
		if err := os.WriteFile(srcAbs, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing descriptor source: %w", err)
		}

		srcRel, err := filepath.Rel(g.cfg.GameRoot, srcAbs)
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}
		outAbs := dir.Join(workspace.DescriptorName)
		outRel, err := filepath.Rel(g.cfg.GameRoot, outAbs)
		if err != nil {
			return fmt.Errorf("resolving staging path: %w", err)
		}

		if _, err := g.runner.Invoke(ctx, starter.PD2CfgP(srcRel, outRel)); err != nil {
			return err
		}
		if _, err := os.Stat(outAbs); err != nil {
			return fmt.Errorf("pd2cfgp reported success but produced no output: %w", err)
		}

		if err := staging.MoveFile(outAbs, g.ws.DescriptorPath()); err != nil {
			return err
		}
		g.log.Info("descriptor updated", "path", g.ws.DescriptorPath())
		return nil
	})
}
