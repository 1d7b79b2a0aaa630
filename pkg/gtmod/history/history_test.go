package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestLogAndGet(t *testing.T) {
	h, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	outputs := []OutputRecord{
		{Path: "/proj/CORE/shared/packed_data/textures.flatdata", Size: 1024, Assets: 3},
		{Path: "/proj/CORE/shared/packed_data/sounds.flatdata", Size: 512, Assets: 2},
	}
	entry, err := h.Log(OpPackage, outputs)
	require.NoError(t, err)

	assert.Equal(t, OpPackage, entry.Operation)
	assert.Contains(t, entry.ID, "package-")
	assert.Equal(t, int64(2), entry.Summary.TotalOutputs)
	assert.Equal(t, int64(1536), entry.Summary.TotalBytes)

	got, err := h.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Len(t, got.Outputs, 2)
}

func TestGetMissing(t *testing.T) {
	h, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	_, err = h.Get("package-nope")
	assert.Error(t, err)

	_, err = h.Get("")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	h, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	first, err := h.Log(OpPackage, nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := h.Log(OpBundle, nil)
	require.NoError(t, err)

	entries, err := h.List(0, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)

	limited, err := h.List(1, "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestListFilterByOperation(t *testing.T) {
	h, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	packaged, err := h.Log(OpPackage, nil)
	require.NoError(t, err)
	_, err = h.Log(OpBundle, nil)
	require.NoError(t, err)
	_, err = h.Log(OpExtract, nil)
	require.NoError(t, err)

	entries, err := h.List(0, OpPackage)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, packaged.ID, entries[0].ID)

	none, err := h.List(0, OpConvert)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("package")
	require.NoError(t, err)
	assert.Equal(t, OpPackage, op)

	op, err = ParseOperation(" Bundle ")
	require.NoError(t, err)
	assert.Equal(t, OpBundle, op)

	_, err = ParseOperation("deploy")
	assert.Error(t, err)
}

func TestListMissingDir(t *testing.T) {
	h, err := New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	entries, err := h.List(0, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSkipsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	h, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	_, err = h.Log(OpConvert, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	entries, err := h.List(0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	h, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())

	old, err := h.Log(OpExtract, nil)
	require.NoError(t, err)
	oldPath := filepath.Join(dir, old.ID+".json")
	stale := time.Now().AddDate(0, 0, -100)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	fresh, err := h.Log(OpPackage, nil)
	require.NoError(t, err)

	require.NoError(t, h.Cleanup(90))

	entries, err := h.List(0, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}
