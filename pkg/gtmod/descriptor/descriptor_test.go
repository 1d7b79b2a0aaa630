package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/starter"
	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

const sampleTemplate = `addpack()
{
    path[] = <my_updates>;
    name[] = <My Addon>;
    author[] = <Vasya Pupkin>;
    version[u] = 1;
    type[*] = RES;
}
`

func writeTemplate(t *testing.T, gameRoot string, data []byte) {
	t.Helper()
	dir := filepath.Dir(TemplatePath(gameRoot))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(TemplatePath(gameRoot), data, 0o644))
}

func TestReadTemplateUTF8(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, []byte(sampleTemplate))

	got, err := ReadTemplate(TemplatePath(root))
	require.NoError(t, err)
	assert.Equal(t, sampleTemplate, got)
}

func TestReadTemplateBOM(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleTemplate)...))

	got, err := ReadTemplate(TemplatePath(root))
	require.NoError(t, err)
	assert.Equal(t, sampleTemplate, got)
}

func TestReadTemplateWindows1251(t *testing.T) {
	root := t.TempDir()
	// 0xCF 0xF0 0xE8 is "При" in Windows-1251 and invalid UTF-8.
	writeTemplate(t, root, []byte{'/', '/', ' ', 0xCF, 0xF0, 0xE8, '\n'})

	got, err := ReadTemplate(TemplatePath(root))
	require.NoError(t, err)
	assert.Equal(t, "// При\n", got)
}

func TestReadTemplateMissing(t *testing.T) {
	_, err := ReadTemplate(TemplatePath(t.TempDir()))
	assert.ErrorIs(t, err, ErrTemplateRead)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Winter War", "Winter_War"},
		{"T-34/76 Pack!", "T-34_76_Pack_"},
		// Stripped punctuation leaves its underscore behind, so a space
		// next to it doubles up.
		{"My Mod! v2", "My_Mod__v2"},
		{"  spaced   out  ", "spaced_out"},
		{"plain_name", "plain_name"},
		{"", config.DefaultModName},
	}
	for _, tt := range tests {
		got := Slug(tt.name)
		assert.Equal(t, tt.want, got, "name %q", tt.name)
		assert.Equal(t, got, Slug(got), "slug of %q is not stable", tt.name)
	}
}

func TestRenderSubstitutions(t *testing.T) {
	info := config.ModInfo{Name: "Winter War", Author: "A. Modder", Version: "103"}
	got := Render(sampleTemplate, info)

	assert.Contains(t, got, "path[] = mods/Winter_War;")
	assert.Contains(t, got, "name[] = Winter War;")
	assert.Contains(t, got, "author[] = A. Modder;")
	assert.Contains(t, got, "version[u] = 103;")
	assert.NotContains(t, got, "<my_updates>")
	assert.NotContains(t, got, "<Vasya Pupkin>")
}

func TestRenderDefaults(t *testing.T) {
	got := Render(sampleTemplate, config.ModInfo{})
	assert.Contains(t, got, "name[] = "+config.DefaultModName)
	assert.Contains(t, got, "author[] = "+config.DefaultModAuthor)
	assert.Contains(t, got, "version[u] = "+config.DefaultModVersion)
}

func TestRenderTypeNormalization(t *testing.T) {
	got := Render("x[] = y;\n", config.ModInfo{Name: "m"})
	assert.Contains(t, got, "type[*] = RES;")

	got = Render("type[*] = ADDN;\n", config.ModInfo{Name: "m"})
	assert.Contains(t, got, "type[*] = ADDN;")

	got = Render("type[*] = CAMP;\n", config.ModInfo{Name: "m"})
	assert.Contains(t, got, "type[*] = CAMP;")

	got = Render("type[*] = BOGUS;\n", config.ModInfo{Name: "m"})
	assert.Contains(t, got, "type[*] = RES;")
	assert.NotContains(t, got, "BOGUS")
}

// fakeRunner simulates starter.exe by writing pd2cfgp output files itself.
type fakeRunner struct {
	root     string
	fail     error
	commands []starter.Command
}

func (f *fakeRunner) Invoke(_ context.Context, cmd starter.Command) (*starter.Result, error) {
	f.commands = append(f.commands, cmd)
	if f.fail != nil {
		return nil, f.fail
	}
	if cmd.Name == starter.CmdPD2CfgP {
		out := filepath.Join(f.root, cmd.Params[1])
		if err := os.WriteFile(out, []byte("compiled"), 0o644); err != nil {
			return nil, err
		}
	}
	return &starter.Result{}, nil
}

func testSetup(t *testing.T) (*config.Config, *workspace.Workspace) {
	t.Helper()
	cfg := &config.Config{
		GameRoot:   t.TempDir(),
		ProjectDir: t.TempDir(),
		Mod:        config.ModInfo{Name: "Winter War", Author: "A. Modder", Version: "102"},
	}
	ws := workspace.New(cfg.ProjectDir)
	require.NoError(t, ws.EnsureLayout(cfg.Mod))
	return cfg, ws
}

func TestGenerate(t *testing.T) {
	cfg, ws := testSetup(t)
	writeTemplate(t, cfg.GameRoot, []byte(sampleTemplate))

	runner := &fakeRunner{root: cfg.GameRoot}
	gen := NewGenerator(runner, cfg, ws)
	require.NoError(t, gen.Generate(context.Background()))

	data, err := os.ReadFile(ws.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, "compiled", string(data))

	require.Len(t, runner.commands, 1)
	assert.Equal(t, starter.CmdPD2CfgP, runner.commands[0].Name)

	// Staging directories are gone after the run.
	entries, err := os.ReadDir(cfg.ModworkDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateCompileFailure(t *testing.T) {
	cfg, ws := testSetup(t)
	writeTemplate(t, cfg.GameRoot, []byte(sampleTemplate))

	runner := &fakeRunner{root: cfg.GameRoot, fail: starter.ErrCommandFailed}
	gen := NewGenerator(runner, cfg, ws)
	err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, starter.ErrCommandFailed)
	assert.NoFileExists(t, ws.DescriptorPath())
}

func TestGenerateMissingTemplate(t *testing.T) {
	cfg, ws := testSetup(t)

	gen := NewGenerator(&fakeRunner{root: cfg.GameRoot}, cfg, ws)
	err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, ErrTemplateRead)
}
