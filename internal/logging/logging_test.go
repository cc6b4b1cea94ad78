package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesFileAndStderr(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stderr bytes.Buffer

	l, err := New(Options{Dir: dir, Level: zerolog.DebugLevel, Stderr: &stderr})
	require.NoError(t, err)
	defer l.Close()

	l.Logger.Debug().Str("key", "value").Msg("hello")

	assert.Equal(t, filepath.Join(dir, FileName), l.Path)
	assert.Contains(t, stderr.String(), "hello")
	assert.Contains(t, stderr.String(), "key=value")

	content, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"debug"`)
	assert.Contains(t, string(content), `"message":"hello"`)
	assert.Contains(t, string(content), `"key":"value"`)
}

func TestNew_LevelFiltering(t *testing.T) {
	var stderr bytes.Buffer

	l, _ := New(Options{Dir: t.TempDir(), Level: zerolog.InfoLevel, Stderr: &stderr})
	defer l.Close()

	l.Logger.Debug().Msg("hidden")
	l.Logger.Info().Msg("shown")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "shown")
}

func TestNew_FallsBackToStderr(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	var stderr bytes.Buffer
	l, err := New(Options{Dir: filepath.Join(blocker, "logs"), Level: zerolog.DebugLevel, Stderr: &stderr})
	require.Error(t, err)
	require.NotNil(t, l)
	defer l.Close()

	assert.Empty(t, l.Path)
	assert.Contains(t, stderr.String(), "file logging disabled")

	l.Logger.Info().Msg("still works")
	assert.Contains(t, stderr.String(), "still works")
}

func TestNew_EmptyDir(t *testing.T) {
	var stderr bytes.Buffer
	l, err := New(Options{Level: zerolog.DebugLevel, Stderr: &stderr})
	assert.Error(t, err)
	assert.Empty(t, l.Path)
	assert.NoError(t, l.Close())
}

func TestComponent(t *testing.T) {
	var stderr bytes.Buffer
	l, _ := New(Options{Dir: t.TempDir(), Level: zerolog.DebugLevel, Stderr: &stderr})
	defer l.Close()

	fsLog := l.Component("fs")
	fsLog.Info().Msg("read")

	content, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"component":"fs"`)
}

func TestNew_Tail(t *testing.T) {
	ring := NewRing(10)
	var stderr bytes.Buffer

	l, _ := New(Options{Dir: t.TempDir(), Level: zerolog.DebugLevel, Stderr: &stderr, Tail: ring})
	defer l.Close()

	l.Logger.Info().Msg("first")
	l.Logger.Info().Msg("second")

	lines := ring.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestRing_Wraps(t *testing.T) {
	ring := NewRing(3)
	for _, s := range []string{"a\n", "b\n", "c\n", "d\n"} {
		_, err := ring.Write([]byte(s))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"b", "c", "d"}, ring.Lines())
}

func TestRing_MultiLineWrite(t *testing.T) {
	ring := NewRing(5)
	_, _ = ring.Write([]byte("one\ntwo\n"))

	assert.Equal(t, []string{"one", "two"}, ring.Lines())
}
