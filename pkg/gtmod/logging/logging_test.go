package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"info", log.InfoLevel, false},
		{"WARN", log.WarnLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"trace", log.InfoLevel, true},
		{"", log.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidLevel, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestInitAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gtmod.log")

	require.NoError(t, Init(Config{Level: "debug", Path: path}))
	t.Cleanup(func() { _ = Close() })

	logger := Get("starter")
	logger.Info("command finished", "exit", 0)
	logger.Debug("details")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command finished")
	assert.Contains(t, string(data), "starter")
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtmod.log")

	require.NoError(t, Init(Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"staging": "error"},
	}))
	t.Cleanup(func() { _ = Close() })

	Get("staging").Info("suppressed")
	Get("pack").Info("visible")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "visible")
}

func TestGetBeforeInit(t *testing.T) {
	// Must not panic; logs go to io.Discard
	logger := Get("uninitialized-component")
	logger.Info("dropped")
}

func TestInitRejectsBadLevels(t *testing.T) {
	err := Init(Config{Level: "nope"})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	err = Init(Config{Level: "info", ConsoleLevel: "nope", Path: filepath.Join(t.TempDir(), "l.log")})
	assert.ErrorIs(t, err, ErrInvalidLevel)
}
