package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akaiko1/nfo-viewer/internal/config"
	"github.com/Akaiko1/nfo-viewer/internal/host"
	"github.com/Akaiko1/nfo-viewer/internal/invocation"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/cliargs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/dialogs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/fsbridge"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/logbridge"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Watch = false
	return cfg
}

// mount runs a host with the usual plugins, a get_file_arg command returning
// fileArg, and the viewer. inspect runs after Mount, inside the run.
func mount(t *testing.T, cfg *config.Config, argv []string, fileArg any, inspect func(v *Viewer)) *Viewer {
	t.Helper()
	v := NewViewer(cfg)

	err := host.NewBuilder(zerolog.Nop()).
		WithApp(func() fyne.App { return test.NewApp() }).
		Plugin(logbridge.New(zerolog.Nop())).
		Plugin(fsbridge.New(nil, cfg.MaxFileSize, zerolog.Nop())).
		Plugin(dialogs.New(cfg.Extensions, zerolog.Nop())).
		Plugin(cliargs.New(invocation.Capture(argv), zerolog.Nop())).
		Command(invocation.Command, func(ctx context.Context, args host.Args) (any, error) {
			return fileArg, nil
		}).
		Frontend(frontendHook{v: v, after: inspect}).
		Run(context.Background())
	require.NoError(t, err)
	return v
}

type frontendHook struct {
	v     *Viewer
	after func(v *Viewer)
}

func (f frontendHook) Mount(h *host.Handle) error {
	if err := f.v.Mount(h); err != nil {
		return err
	}
	if f.after != nil {
		f.after(f.v)
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMount_LoadsFileArgument(t *testing.T) {
	path := writeFile(t, "release.nfo", "line one\r\nline two\r\n")

	v := mount(t, testConfig(), []string{"exe"}, path, nil)

	require.NotNil(t, v.current)
	assert.Equal(t, "release.nfo", v.current.Name)
	assert.Equal(t, "line one\nline two\n", v.text)
	assert.Equal(t, "line one\nline two\n", v.grid.Text())
	assert.Equal(t, "nfo-viewer - release.nfo", v.window.Title())
	assert.Contains(t, v.statusLabel.Text, "2 lines")
	assert.True(t, v.scroll.Visible())
	assert.False(t, v.hint.Visible())
}

func TestMount_NoFileArgument(t *testing.T) {
	v := mount(t, testConfig(), []string{"exe"}, nil, nil)

	assert.Nil(t, v.current)
	assert.Equal(t, msgReady, v.statusLabel.Text)
	assert.True(t, v.hint.Visible())
	assert.False(t, v.scroll.Visible())
}

func TestMount_FallsBackToCLIMatch(t *testing.T) {
	path := writeFile(t, "fallback.nfo", "art")

	v := mount(t, testConfig(), []string{"exe", path}, nil, nil)

	require.NotNil(t, v.current)
	assert.Equal(t, "fallback.nfo", v.current.Name)
}

func TestMount_IgnoresFlagValueAsFileArgument(t *testing.T) {
	path := writeFile(t, "release.nfo", "art")

	t.Run("config", func(t *testing.T) {
		cfgPath := writeFile(t, "config.yaml", "watch: false\n")

		v := mount(t, testConfig(), []string{"exe", "--config", cfgPath, path}, cfgPath, nil)

		require.NotNil(t, v.current)
		assert.Equal(t, "release.nfo", v.current.Name)
	})

	t.Run("log dir", func(t *testing.T) {
		logDir := t.TempDir()

		v := mount(t, testConfig(), []string{"exe", "--log-dir", logDir, path}, logDir, func(v *Viewer) {
			assert.Nil(t, v.window.Canvas().Overlays().Top())
		})

		require.NotNil(t, v.current)
		assert.Equal(t, "release.nfo", v.current.Name)
	})
}

func TestMount_DirectoryArgumentOpensDialog(t *testing.T) {
	dir := t.TempDir()

	v := mount(t, testConfig(), []string{"exe"}, dir, func(v *Viewer) {
		assert.NotNil(t, v.window.Canvas().Overlays().Top())
	})

	assert.Nil(t, v.current)
}

func TestMount_RequiresPlugins(t *testing.T) {
	err := host.NewBuilder(zerolog.Nop()).
		WithApp(func() fyne.App { return test.NewApp() }).
		Frontend(NewViewer(nil)).
		Run(context.Background())

	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	v := mount(t, testConfig(), []string{"exe"}, nil, func(v *Viewer) {
		v.load(filepath.Join(t.TempDir(), "gone.nfo"))
	})

	assert.Nil(t, v.current)
	assert.Equal(t, "Failed to load gone.nfo", v.statusLabel.Text)
}

func TestDrop(t *testing.T) {
	path := writeFile(t, "dropped.diz", "dropped")
	dir := t.TempDir()

	v := mount(t, testConfig(), []string{"exe"}, nil, func(v *Viewer) {
		v.handleDrop(storage.NewFileURI(dir))
		assert.Nil(t, v.current)

		v.handleDrop(storage.NewFileURI(path))
	})

	require.NotNil(t, v.current)
	assert.Equal(t, "dropped.diz", v.current.Name)
}

func TestCopy(t *testing.T) {
	path := writeFile(t, "copy.nfo", "copy me")
	var clip string

	v := mount(t, testConfig(), []string{"exe"}, path, func(v *Viewer) {
		v.handleCopy()
		clip = v.handle.App().Clipboard().Content()
	})

	assert.Equal(t, "copy me", clip)
	assert.Equal(t, msgCopySuccess, v.statusLabel.Text)
}

func TestCopyAndReload_WithoutDocument(t *testing.T) {
	v := mount(t, testConfig(), []string{"exe"}, nil, func(v *Viewer) {
		v.handleCopy()
		v.handleReload()
		assert.NotNil(t, v.window.Canvas().Overlays().Top())
	})

	assert.Nil(t, v.current)
}

func TestReload_PicksUpChanges(t *testing.T) {
	path := writeFile(t, "edit.nfo", "v1")

	v := mount(t, testConfig(), []string{"exe"}, path, func(v *Viewer) {
		require.NoError(t, os.WriteFile(path, []byte("v2\nmore"), 0o600))
		v.handleReload()
	})

	assert.Equal(t, "v2\nmore", v.text)
}

func TestReload_FileRemoved(t *testing.T) {
	path := writeFile(t, "gone.nfo", "v1")

	v := mount(t, testConfig(), []string{"exe"}, path, func(v *Viewer) {
		require.NoError(t, os.Remove(path))
		v.reload()
	})

	assert.Equal(t, "gone.nfo is no longer readable", v.statusLabel.Text)
	assert.Equal(t, "v1", v.text)
}

func TestWatch_StartedWhenEnabled(t *testing.T) {
	path := writeFile(t, "watched.nfo", "x")
	cfg := testConfig()
	cfg.Watch = true

	v := mount(t, cfg, []string{"exe"}, path, func(v *Viewer) {
		require.NotNil(t, v.watcher)
		abs, err := filepath.Abs(path)
		require.NoError(t, err)
		assert.Equal(t, abs, v.watcher.Path())
	})

	// The bridge stopped it on shutdown; stopping again is harmless.
	v.stopWatching()
	assert.Nil(t, v.watcher)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		expected string
	}{
		{"crlf", []byte("a\r\nb"), "a\nb"},
		{"bare cr", []byte("a\rb"), "a\nb"},
		{"invalid utf8", []byte{'a', 0xff, 'b'}, "a�b"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeText(tt.in))
		})
	}
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("a"))
	assert.Equal(t, 1, countLines("a\n"))
	assert.Equal(t, 2, countLines("a\nb"))
	assert.Equal(t, 3, countLines("a\n\nb\n"))
}
