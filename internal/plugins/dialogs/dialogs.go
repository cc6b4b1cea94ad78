// Package dialogs is the native dialog plugin.
package dialogs

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/rs/zerolog"

	"github.com/Akaiko1/nfo-viewer/internal/host"
)

// Name is the plugin name.
const Name = "dialog"

// ErrNoWindow is returned when a dialog is requested before Init.
var ErrNoWindow = errors.New("dialog plugin has no parent window")

// OpenCallback receives the chosen path, or "" when the user cancelled.
type OpenCallback func(path string, err error)

// Plugin implements host.Plugin.
type Plugin struct {
	extensions []string
	log        zerolog.Logger
	window     fyne.Window
}

// New creates the plugin. extensions filter the open dialog; an empty list
// shows every file.
func New(extensions []string, log zerolog.Logger) *Plugin {
	return &Plugin{extensions: extensions, log: log}
}

// Name implements host.Plugin.
func (p *Plugin) Name() string { return Name }

// Init attaches dialogs to the main window.
func (p *Plugin) Init(h *host.Handle) error {
	p.window = h.MainWindow()
	if p.window == nil {
		return ErrNoWindow
	}
	return nil
}

// Extensions returns the open dialog filter.
func (p *Plugin) Extensions() []string {
	out := make([]string, len(p.extensions))
	copy(out, p.extensions)
	return out
}

// OpenFile shows a file-open dialog. startDir, when not empty, is the initial
// location.
func (p *Plugin) OpenFile(startDir string, cb OpenCallback) error {
	if p.window == nil {
		return ErrNoWindow
	}

	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.log.Warn().Err(err).Msg("open dialog failed")
			cb("", fmt.Errorf("open dialog: %w", err))
			return
		}
		if reader == nil {
			p.log.Debug().Msg("open dialog cancelled")
			cb("", nil) // User cancelled
			return
		}
		path := reader.URI().Path()
		if cerr := reader.Close(); cerr != nil {
			p.log.Debug().Err(cerr).Msg("failed to close dialog reader")
		}
		p.log.Debug().Str("path", path).Msg("file chosen")
		cb(path, nil)
	}, p.window)

	if len(p.extensions) > 0 {
		fd.SetFilter(storage.NewExtensionFileFilter(p.extensions))
	}
	if startDir != "" {
		location, err := storage.ListerForURI(storage.NewFileURI(startDir))
		if err != nil {
			p.log.Debug().Err(err).Str("dir", startDir).Msg("cannot start dialog in directory")
		} else {
			fd.SetLocation(location)
		}
	}

	fd.Show()
	return nil
}

// ShowError shows err in a modal dialog.
func (p *Plugin) ShowError(title string, err error) {
	p.log.Error().Err(err).Str("title", title).Msg("error shown to user")
	if p.window == nil {
		return
	}
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), p.window)
}

// ShowInfo shows an information dialog.
func (p *Plugin) ShowInfo(title, message string) {
	if p.window == nil {
		return
	}
	dialog.ShowInformation(title, message, p.window)
}
