package flatlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogicalName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"smoke_01.texture", "smoke_01"},
		{"engine_idle.loc_def.sound", "engine_idle"},
		{"ENGINE.LOC_DEF.SOUND", "ENGINE"},
		{"readme.txt", "readme"},
		{"noext", "noext"},
		{"dots.in.name.texture", "dots.in.name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogicalName(tt.filename), "filename %q", tt.filename)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("smoke_01"))
	assert.NoError(t, ValidateName("t34-76 hull"))

	for _, bad := range []string{"", "a,b", "a\tb", "a;b", "a{b", "a}b", "a/b", `a\b`, "a\nb"} {
		assert.ErrorIs(t, ValidateName(bad), ErrUnsafeName, "name %q", bad)
	}
}

func TestBuild(t *testing.T) {
	entries := []Entry{
		{Name: "a", Type: TypeTexture},
		{Name: "b", Type: TypeTexture},
	}
	got, err := Build(entries)
	require.NoError(t, err)

	want := "i_unflat:unflat()\n{\n" +
		"    a\t, texture\t, loc_def ;\n" +
		"    b\t, texture\t, loc_def ;\n" +
		"}\n"
	assert.Equal(t, want, got)
}

func TestBuildDeterministicAndOrderPreserving(t *testing.T) {
	entries := []Entry{
		{Name: "zulu", Type: TypeSound},
		{Name: "alpha", Type: TypeSound},
	}
	first, err := Build(entries)
	require.NoError(t, err)
	second, err := Build(entries)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Input order is preserved, not sorted
	assert.Less(t, strings.Index(first, "    zulu\t"), strings.Index(first, "    alpha\t"))
}

func TestBuildRejectsUnsafeNames(t *testing.T) {
	_, err := Build([]Entry{{Name: "bad,name", Type: TypeTexture}})
	assert.ErrorIs(t, err, ErrUnsafeName)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrNoEntries)
}
