package starter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandWire(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"no params", Command{Name: "unflat"}, "unflat"},
		{"two params", MkFlat("out.flatdata", "list.!flatlist"), "mkflat,out.flatdata,list.!flatlist"},
		{"empty param preserved", Command{Name: "unflat", Params: []string{"a.flatdata", ""}}, "unflat,a.flatdata,"},
		{"convert", ATF2DDS("in.texture", "out.dds"), "atf2dds,in.texture,out.dds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.wire())
		})
	}
}

// fakeGameRoot creates a directory containing a stub starter.exe running the
// given shell script body.
func fakeGameRoot(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executable requires a POSIX shell")
	}
	root := t.TempDir()
	exe := filepath.Join(root, config.StarterExeName)
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return root
}

func newStarter(root string) *Starter {
	return New(&config.Config{GameRoot: root, CommandTimeoutSec: 10})
}

func TestInvokeNotConfigured(t *testing.T) {
	s := New(&config.Config{})
	_, err := s.Invoke(context.Background(), MkFlat("a", "b"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestInvokeMissingRoot(t *testing.T) {
	s := newStarter(filepath.Join(t.TempDir(), "nope"))
	_, err := s.Invoke(context.Background(), MkFlat("a", "b"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestInvokeMissingExecutable(t *testing.T) {
	s := newStarter(t.TempDir())
	_, err := s.Invoke(context.Background(), MkFlat("a", "b"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestInvokeSuccess(t *testing.T) {
	root := fakeGameRoot(t, `echo "processing $1"`)
	s := newStarter(root)

	res, err := s.Invoke(context.Background(), MkFlat("out.flatdata", "list.!flatlist"))
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "mkflat,out.flatdata,list.!flatlist")
	assert.Empty(t, res.OutputPath)
}

func TestInvokeNonZeroExit(t *testing.T) {
	root := fakeGameRoot(t, "exit 3")
	s := newStarter(root)

	_, err := s.Invoke(context.Background(), MkFlat("a", "b"))
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestInvokeTimeout(t *testing.T) {
	root := fakeGameRoot(t, "sleep 10")
	s := newStarter(root)

	cmd := MkFlat("a", "b")
	cmd.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := s.Invoke(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInvokeUnflatReturnsOutputPath(t *testing.T) {
	root := fakeGameRoot(t, "exit 0")
	s := newStarter(root)

	res, err := s.Invoke(context.Background(), Unflat("data/tex_main.flatdata", "users/modwork/_out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "users/modwork/_out"), res.OutputPath)
}

func TestInvokeRunsFromGameRoot(t *testing.T) {
	root := fakeGameRoot(t, "pwd")
	s := newStarter(root)

	res, err := s.Invoke(context.Background(), Command{Name: "unflat"})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, filepath.Base(root))
}
