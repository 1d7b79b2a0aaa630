// Package workspace manages the mod project directory layout: the prepared
// asset folders the user fills, the extraction trees, and the CORE output
// tree the game consumes.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/flatlist"
)

// Well-known file names inside the project.
const (
	ReadmeName     = "readme.txt"
	DescriptorName = "desc.addpack"
)

// Workspace is a mod project rooted at a single directory.
type Workspace struct {
	// Root is the mod project directory.
	Root string
}

// New returns a Workspace for the given project root.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// DDSWork returns the folder for .dds files being edited.
func (w *Workspace) DDSWork() string { return filepath.Join(w.Root, "dds_work") }

// PreparedTextures returns the folder for final .texture files.
func (w *Workspace) PreparedTextures() string { return filepath.Join(w.Root, "prepared_textures") }

// PreparedSFX returns the folder for final SFX sound files.
func (w *Workspace) PreparedSFX() string { return filepath.Join(w.Root, "prepared_sounds", "sfx") }

// PreparedSpeech returns the folder for final speech sound files.
func (w *Workspace) PreparedSpeech() string {
	return filepath.Join(w.Root, "prepared_sounds", "speech")
}

// WavSFXWork returns the work folder for SFX .wav sources.
func (w *Workspace) WavSFXWork() string { return filepath.Join(w.Root, "wav_sfx_work") }

// WavSpeechWork returns the work folder for speech .wav sources.
func (w *Workspace) WavSpeechWork() string { return filepath.Join(w.Root, "wav_speech_work") }

// ExtractedATF returns the tree of original .texture files pulled from the
// game.
func (w *Workspace) ExtractedATF() string {
	return filepath.Join(w.Root, "extracted_game_textures", "atf")
}

// ExtractedDDS returns the tree of .dds files converted from the game.
func (w *Workspace) ExtractedDDS() string {
	return filepath.Join(w.Root, "extracted_game_textures", "dds")
}

// ExtractedSounds returns the tree of sound files pulled from the game.
func (w *Workspace) ExtractedSounds() string {
	return filepath.Join(w.Root, "extracted_game_sounds")
}

// Core returns the CORE directory holding game-installable files.
func (w *Workspace) Core() string { return filepath.Join(w.Root, "CORE") }

// PackedData returns the output tree for flatdata archives.
func (w *Workspace) PackedData() string {
	return filepath.Join(w.Core(), "shared", "packed_data")
}

// DescriptorPath returns the fixed location of the compiled mod descriptor.
func (w *Workspace) DescriptorPath() string {
	return filepath.Join(w.Core(), DescriptorName)
}

// ReadmePath returns the location of the project readme.
func (w *Workspace) ReadmePath() string { return filepath.Join(w.Root, ReadmeName) }

// EnsureLayout idempotently creates the project folder structure and, on
// first initialization only, a template readme. Existing content is never
// deleted or modified.
func (w *Workspace) EnsureLayout(info config.ModInfo) error {
	dirs := []string{
		w.DDSWork(),
		w.PreparedTextures(),
		w.PreparedSFX(),
		w.PreparedSpeech(),
		w.WavSFXWork(),
		w.WavSpeechWork(),
		w.ExtractedATF(),
		w.ExtractedDDS(),
		w.ExtractedSounds(),
		w.PackedData(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating folder %q: %w", d, err)
		}
	}

	// The readme is created once; a user-edited version is preserved by
	// presence check.
	if _, err := os.Stat(w.ReadmePath()); os.IsNotExist(err) {
		if err := w.UpdateReadme(info); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("checking readme: %w", err)
	}

	return nil
}

// Category describes one prepared asset source folder.
type Category struct {
	// Prefix tags entries in listings, e.g. "TEX".
	Prefix string

	// Dir is the prepared asset folder.
	Dir string

	// Ext is the (possibly compound) filename extension of prepared files.
	Ext string

	// Type is the flatlist type declared for these assets.
	Type flatlist.Type

	// Stem names the output archive this category feeds, e.g. "textures".
	Stem string
}

// Categories returns the prepared asset categories enabled by the
// configuration, in a fixed order.
func (w *Workspace) Categories(cfg config.CategoriesConfig) []Category {
	var cats []Category
	if cfg.Textures {
		cats = append(cats, Category{
			Prefix: "TEX",
			Dir:    w.PreparedTextures(),
			Ext:    ".texture",
			Type:   flatlist.TypeTexture,
			Stem:   "textures",
		})
	}
	if cfg.SFX {
		cats = append(cats, Category{
			Prefix: "SFX",
			Dir:    w.PreparedSFX(),
			Ext:    ".loc_def.sound",
			Type:   flatlist.TypeSound,
			Stem:   "sounds",
		})
	}
	if cfg.Speech {
		cats = append(cats, Category{
			Prefix: "SPE",
			Dir:    w.PreparedSpeech(),
			Ext:    ".loc_def.sound",
			Type:   flatlist.TypeSound,
			Stem:   "sounds",
		})
	}
	return cats
}
