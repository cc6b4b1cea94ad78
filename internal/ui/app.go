package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/Akaiko1/nfo-viewer/internal/clipboard"
	"github.com/Akaiko1/nfo-viewer/internal/config"
	"github.com/Akaiko1/nfo-viewer/internal/host"
	"github.com/Akaiko1/nfo-viewer/internal/invocation"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/cliargs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/dialogs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/fsbridge"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/logbridge"
)

const (
	// Messages
	msgReady       = "Ready. Drop a file or press Open."
	msgDropHint    = "Drop an NFO file here\nor press Open (Ctrl+O)"
	msgNoDoc       = "Please open a file first."
	msgCopySuccess = "Text copied to clipboard!"
	msgDropFolder  = "please drop a file, not a folder"
	msgInvalidURI  = "invalid file path"
)

// Viewer is the front-end mounted into the main window. All fields are touched
// on the UI thread only.
type Viewer struct {
	cfg *config.Config
	log zerolog.Logger

	// Services
	window  fyne.Window
	handle  *host.Handle
	fs      *fsbridge.Plugin
	dialogs *dialogs.Plugin
	cli     *cliargs.Plugin
	copier  clipboard.Copier

	// UI components
	grid        *widget.TextGrid
	scroll      *container.Scroll
	hint        fyne.CanvasObject
	statusLabel *widget.Label

	// State
	current *fsbridge.Document
	text    string
	watcher *fsbridge.Watcher
}

// NewViewer creates the front-end.
func NewViewer(cfg *config.Config) *Viewer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Viewer{
		cfg: cfg,
		log: zerolog.Nop(),
	}
}

// Mount implements host.Frontend.
func (v *Viewer) Mount(h *host.Handle) error {
	fsb, ok := host.PluginAs[*fsbridge.Plugin](h, fsbridge.Name)
	if !ok {
		return errors.New("filesystem plugin is not registered")
	}
	dlg, ok := host.PluginAs[*dialogs.Plugin](h, dialogs.Name)
	if !ok {
		return errors.New("dialog plugin is not registered")
	}
	v.cli, _ = host.PluginAs[*cliargs.Plugin](h, cliargs.Name)

	v.log = h.Logger()
	if lb, ok := host.PluginAs[*logbridge.Plugin](h, logbridge.Name); ok {
		v.log = lb.Logger("ui")
	}

	v.handle = h
	v.window = h.MainWindow()
	v.fs = fsb
	v.dialogs = dlg
	v.copier = clipboard.NewFyneCopier(h.App().Clipboard())

	v.window.SetContent(v.createMainContent())
	v.enableDragDrop()
	v.registerShortcuts()

	v.openInitial()
	return nil
}

// createMainContent creates the main UI content.
func (v *Viewer) createMainContent() fyne.CanvasObject {
	openBtn := widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), v.handleOpen)
	reloadBtn := widget.NewButtonWithIcon("Reload", theme.ViewRefreshIcon(), v.handleReload)
	copyBtn := widget.NewButtonWithIcon("Copy Text", theme.ContentCopyIcon(), v.handleCopy)
	aboutBtn := widget.NewButtonWithIcon("About", theme.InfoIcon(), v.handleAbout)

	buttonContainer := container.NewGridWithColumns(4,
		openBtn,
		reloadBtn,
		copyBtn,
		aboutBtn,
	)

	v.statusLabel = widget.NewLabel(msgReady)

	v.grid = widget.NewTextGrid()
	v.scroll = container.NewScroll(v.grid)
	v.scroll.Hide()

	hintLabel := widget.NewLabel(msgDropHint)
	hintLabel.Alignment = fyne.TextAlignCenter
	v.hint = container.NewCenter(hintLabel)

	header := container.NewVBox(buttonContainer, v.statusLabel)
	body := container.NewStack(v.hint, v.scroll)

	return container.NewBorder(header, nil, nil, nil, body)
}

// openInitial loads whatever the invocation pointed at.
func (v *Viewer) openInitial() {
	path := v.initialPath()
	if path == "" {
		v.log.Info().Msg("no initial file, waiting for user")
		return
	}

	if v.fs.IsDir(path) {
		v.log.Debug().Str("dir", path).Msg("initial argument is a directory, opening dialog there")
		v.showOpenDialog(path)
		return
	}

	v.load(path)
}

// initialPath asks the bootstrap command first and falls back to the CLI
// plugin's positional match. The command only skips flag names, so a result
// that is really the value of --config or --log-dir is ignored.
func (v *Viewer) initialPath() string {
	var matches cliargs.Matches
	parsed := false
	if v.cli != nil {
		var err error
		matches, err = v.cli.Matches()
		parsed = err == nil
	}

	result, err := v.handle.Invoke(context.Background(), invocation.Command, nil)
	if err != nil {
		v.log.Warn().Err(err).Msg("file argument command failed")
	} else if path, ok := result.(string); ok && path != "" {
		if !parsed || !matches.IsFlagValue(path) {
			return path
		}
		v.log.Debug().Str("path", path).Msg("file argument is a flag value, using positional match")
	}

	if !parsed {
		return ""
	}
	if path, ok := matches.File(); ok && v.fs.Exists(path) {
		return path
	}
	return ""
}

// handleOpen handles the Open button and Ctrl+O.
func (v *Viewer) handleOpen() {
	start := ""
	if v.current != nil {
		start = filepath.Dir(v.current.Path)
	}
	v.showOpenDialog(start)
}

func (v *Viewer) showOpenDialog(start string) {
	err := v.dialogs.OpenFile(start, func(path string, err error) {
		if err != nil {
			v.dialogs.ShowError("Open Error", err)
			return
		}
		if path == "" {
			return // User cancelled
		}
		v.load(path)
	})
	if err != nil {
		v.dialogs.ShowError("Open Error", err)
	}
}

// load reads path, shows it and starts watching it.
func (v *Viewer) load(path string) {
	doc, err := v.fs.ReadFile(path)
	if err != nil {
		v.dialogs.ShowError("Load Error", err)
		v.statusLabel.SetText("Failed to load " + filepath.Base(path))
		return
	}

	v.show(doc)
	v.watch(doc.Path)
}

// handleReload re-reads the current file.
func (v *Viewer) handleReload() {
	if v.current == nil {
		v.dialogs.ShowInfo("No File", msgNoDoc)
		return
	}
	v.reload()
}

// reload re-reads the current file without restarting the watcher.
func (v *Viewer) reload() {
	if v.current == nil {
		return
	}
	doc, err := v.fs.ReadFile(v.current.Path)
	if err != nil {
		v.log.Warn().Err(err).Str("path", v.current.Path).Msg("reload failed")
		v.statusLabel.SetText(fmt.Sprintf("%s is no longer readable", v.current.Name))
		return
	}
	v.show(doc)
}

func (v *Viewer) show(doc *fsbridge.Document) {
	v.current = doc
	v.text = normalizeText(doc.Data)

	v.grid.SetText(v.text)
	v.hint.Hide()
	v.scroll.Show()
	v.scroll.ScrollToTop()

	v.window.SetTitle(fmt.Sprintf("%s - %s", config.AppName, doc.Name))
	v.statusLabel.SetText(fmt.Sprintf("%s (%s, %d lines)", doc.Name, humanize.Bytes(uint64(doc.Size)), countLines(v.text)))
	v.log.Info().Str("path", doc.Path).Int64("size", doc.Size).Msg("document shown")
}

func (v *Viewer) watch(path string) {
	v.stopWatching()
	if !v.cfg.Watch {
		return
	}

	w, err := v.fs.Watch(path, fsbridge.DefaultDebounce, func(string) {
		// Watch callbacks arrive on a background goroutine
		fyne.Do(v.reload)
	})
	if err != nil {
		v.log.Warn().Err(err).Str("path", path).Msg("cannot watch file")
		return
	}
	v.watcher = w
}

func (v *Viewer) stopWatching() {
	if v.watcher == nil {
		return
	}
	if err := v.watcher.Stop(); err != nil {
		v.log.Debug().Err(err).Msg("failed to stop watcher")
	}
	v.watcher = nil
}

// handleCopy copies the document text to the clipboard.
func (v *Viewer) handleCopy() {
	if v.current == nil {
		v.dialogs.ShowInfo("No File", msgNoDoc)
		return
	}

	if err := v.copier.Copy(v.text); err != nil {
		v.dialogs.ShowError("Clipboard Error", err)
		return
	}
	v.statusLabel.SetText(msgCopySuccess)
}

// handleAbout shows the version.
func (v *Viewer) handleAbout() {
	v.dialogs.ShowInfo("About "+config.AppName,
		fmt.Sprintf("%s %s\nA viewer for NFO, DIZ and ASCII art text files.", config.AppName, config.Version))
}

// enableDragDrop enables drag and drop functionality.
func (v *Viewer) enableDragDrop() {
	v.window.SetOnDropped(func(position fyne.Position, uris []fyne.URI) {
		if len(uris) == 0 {
			return
		}
		v.handleDrop(uris[0]) // Take first dropped item
	})
}

func (v *Viewer) handleDrop(uri fyne.URI) {
	if uri.Scheme() != "file" {
		v.dialogs.ShowError("Drop Error", errors.New(msgInvalidURI))
		return
	}

	path := uri.Path()
	if v.fs.IsDir(path) {
		v.dialogs.ShowError("Drop Error", errors.New(msgDropFolder))
		return
	}
	v.load(path)
}

func (v *Viewer) registerShortcuts() {
	canvas := v.window.Canvas()
	canvas.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { v.handleOpen() })
	canvas.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { v.handleReload() })
}

// normalizeText makes file bytes displayable: invalid UTF-8 is replaced and
// every line ending becomes \n. No code page conversion happens here.
func normalizeText(data []byte) string {
	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// countLines counts lines, not counting the empty remainder after a final newline.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
