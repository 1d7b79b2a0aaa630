package pack

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/flatlist"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

// fakeRunner simulates starter.exe, writing mkflat output files itself and
// recording every staged flatlist for inspection.
type fakeRunner struct {
	root      string
	fail      error
	commands  []starter.Command
	flatlists []string
}

func (f *fakeRunner) Invoke(_ context.Context, cmd starter.Command) (*starter.Result, error) {
	f.commands = append(f.commands, cmd)
	if f.fail != nil {
		return nil, f.fail
	}
	if cmd.Name == starter.CmdMkFlat {
		list, err := os.ReadFile(filepath.Join(f.root, cmd.Params[1]))
		if err != nil {
			return nil, err
		}
		f.flatlists = append(f.flatlists, string(list))
		if err := os.WriteFile(filepath.Join(f.root, cmd.Params[0]), []byte("flatdata"), 0o644); err != nil {
			return nil, err
		}
	}
	return &starter.Result{}, nil
}

func testSetup(t *testing.T) (*config.Config, *workspace.Workspace, *fakeRunner) {
	t.Helper()
	cfg := &config.Config{
		GameRoot:   t.TempDir(),
		ProjectDir: t.TempDir(),
		Mod:        config.ModInfo{Name: "Winter War"},
		Categories: config.CategoriesConfig{Textures: true, SFX: true, Speech: true},
	}
	ws := workspace.New(cfg.ProjectDir)
	require.NoError(t, ws.EnsureLayout(cfg.Mod))
	return cfg, ws, &fakeRunner{root: cfg.GameRoot}
}

func prepare(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPackageTextures(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedTextures(), "hull.texture", "h")
	prepare(t, ws.PreparedTextures(), "turret.texture", "t")

	p := NewPackager(runner, cfg, ws)
	archives, err := p.Package(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, archives, 1)
	assert.Equal(t, "textures", archives[0].Stem)
	assert.Equal(t, 2, archives[0].Assets)
	assert.Equal(t, filepath.Join(ws.PackedData(), "textures.flatdata"), archives[0].Path)
	assert.FileExists(t, archives[0].Path)

	require.Len(t, runner.flatlists, 1)
	assert.Contains(t, runner.flatlists[0], "    hull\t, texture\t, loc_def ;")
	assert.Contains(t, runner.flatlists[0], "    turret\t, texture\t, loc_def ;")

	// Staging is gone.
	entries, err := os.ReadDir(cfg.ModworkDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPackageSFXAndSpeechShareSoundsArchive(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedSFX(), "shot.loc_def.sound", "s")
	prepare(t, ws.PreparedSpeech(), "order.loc_def.sound", "o")

	p := NewPackager(runner, cfg, ws)
	archives, err := p.Package(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, archives, 1)
	assert.Equal(t, "sounds", archives[0].Stem)
	assert.Equal(t, 2, archives[0].Assets)

	require.Len(t, runner.flatlists, 1)
	assert.Contains(t, runner.flatlists[0], "    shot\t, sound\t, loc_def ;")
	assert.Contains(t, runner.flatlists[0], "    order\t, sound\t, loc_def ;")
}

func TestPackageNothingPrepared(t *testing.T) {
	cfg, ws, runner := testSetup(t)

	existing := filepath.Join(ws.PackedData(), "textures.flatdata")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	p := NewPackager(runner, cfg, ws)
	archives, err := p.Package(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, archives)
	assert.Empty(t, runner.commands)

	// The existing archive is untouched.
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestPackageOnlyFilter(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedTextures(), "hull.texture", "h")
	prepare(t, ws.PreparedSFX(), "shot.loc_def.sound", "s")

	p := NewPackager(runner, cfg, ws)
	archives, err := p.Package(context.Background(), []string{"sounds"})
	require.NoError(t, err)

	require.Len(t, archives, 1)
	assert.Equal(t, "sounds", archives[0].Stem)
}

func TestPackageDisabledCategory(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	cfg.Categories = config.CategoriesConfig{Textures: true}
	prepare(t, ws.PreparedSFX(), "shot.loc_def.sound", "s")

	p := NewPackager(runner, cfg, ws)
	archives, err := p.Package(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, archives)
}

func TestPackageDuplicateNames(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedSFX(), "shot.loc_def.sound", "a")
	prepare(t, ws.PreparedSpeech(), "shot.loc_def.sound", "b")

	p := NewPackager(runner, cfg, ws)
	_, err := p.Package(context.Background(), nil)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.NoFileExists(t, filepath.Join(ws.PackedData(), "sounds.flatdata"))
}

func TestPackageMissingSourceAborts(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedTextures(), "hull.texture", "h")
	prepare(t, ws.PreparedTextures(), "turret.texture", "t")

	var cat workspace.Category
	for _, c := range ws.Categories(cfg.Categories) {
		if c.Prefix == "TEX" {
			cat = c
		}
	}
	assets, err := workspace.ScanCategory(cat)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	// One source vanishes between scan and staging.
	require.NoError(t, os.Remove(filepath.Join(ws.PreparedTextures(), "turret.texture")))

	p := NewPackager(runner, cfg, ws)
	_, err = p.packArchive(context.Background(), "textures", assets)
	assert.ErrorIs(t, err, ErrMissingSource)
	assert.Empty(t, runner.commands)
	assert.NoFileExists(t, filepath.Join(ws.PackedData(), "textures.flatdata"))

	entries, err := os.ReadDir(cfg.ModworkDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPackageUnsafeNameFailsBeforeInvoke(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedTextures(), "bad,name.texture", "x")

	p := NewPackager(runner, cfg, ws)
	_, err := p.Package(context.Background(), nil)
	assert.ErrorIs(t, err, flatlist.ErrUnsafeName)
	assert.Empty(t, runner.commands)
}

func TestPackageMkflatFailureKeepsExistingArchive(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	runner.fail = starter.ErrCommandFailed
	prepare(t, ws.PreparedTextures(), "hull.texture", "h")

	existing := filepath.Join(ws.PackedData(), "textures.flatdata")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	p := NewPackager(runner, cfg, ws)
	_, err := p.Package(context.Background(), nil)
	assert.ErrorIs(t, err, starter.ErrCommandFailed)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// Staging is cleaned up on failure too.
	entries, err := os.ReadDir(cfg.ModworkDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPackageStagedCopiesLiveUnderGameRoot(t *testing.T) {
	cfg, ws, runner := testSetup(t)
	prepare(t, ws.PreparedTextures(), "hull.texture", "h")

	p := NewPackager(runner, cfg, ws)
	_, err := p.Package(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, runner.commands, 1)
	cmd := runner.commands[0]
	assert.Equal(t, starter.CmdMkFlat, cmd.Name)
	for _, param := range cmd.Params {
		assert.False(t, filepath.IsAbs(param), "param %q must be game-root relative", param)
		assert.False(t, strings.HasPrefix(param, ".."), "param %q must stay under the game root", param)
	}
}
