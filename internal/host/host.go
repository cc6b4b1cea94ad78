// Package host runs the UI toolkit and wires plugins, commands, setup hooks and
// the front-end around its event loop.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownCommand is returned by Invoke for names nobody registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned by Run when a command name was registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrDuplicatePlugin is returned by Run when two plugins share a name.
	ErrDuplicatePlugin = errors.New("plugin already registered")
)

// Args carries named command parameters.
type Args map[string]any

// Handler implements an invokable command.
type Handler func(ctx context.Context, args Args) (any, error)

// Plugin is a service initialised before the event loop starts. Plugins that
// also implement io.Closer are closed in reverse order after the loop ends.
type Plugin interface {
	Name() string
	Init(h *Handle) error
}

// SetupFunc runs once after every plugin is initialised.
type SetupFunc func(h *Handle) error

// Frontend builds the main window content.
type Frontend interface {
	Mount(h *Handle) error
}

// WindowOptions describes the main window.
type WindowOptions struct {
	Title  string
	Width  float32
	Height float32
}

// Builder collects everything the runtime needs before Run.
type Builder struct {
	log      zerolog.Logger
	newApp   func() fyne.App
	window   WindowOptions
	plugins  []Plugin
	commands map[string]Handler
	setup    []SetupFunc
	frontend Frontend
	err      error
}

// NewBuilder creates a builder that uses the platform Fyne driver.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log:      log,
		newApp:   app.New,
		window:   WindowOptions{Title: "Untitled", Width: 800, Height: 600},
		commands: make(map[string]Handler),
	}
}

// WithApp replaces the application factory, e.g. with the Fyne test driver.
func (b *Builder) WithApp(newApp func() fyne.App) *Builder {
	b.newApp = newApp
	return b
}

// Window sets the main window options.
func (b *Builder) Window(opts WindowOptions) *Builder {
	b.window = opts
	return b
}

// Plugin registers p. Plugins are initialised in registration order.
func (b *Builder) Plugin(p Plugin) *Builder {
	for _, existing := range b.plugins {
		if existing.Name() == p.Name() {
			b.fail(fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name()))
			return b
		}
	}
	b.plugins = append(b.plugins, p)
	return b
}

// Command registers an invokable command.
func (b *Builder) Command(name string, h Handler) *Builder {
	if _, ok := b.commands[name]; ok {
		b.fail(fmt.Errorf("%w: %s", ErrDuplicateCommand, name))
		return b
	}
	b.commands[name] = h
	return b
}

// Setup adds a one-time setup callback.
func (b *Builder) Setup(fn SetupFunc) *Builder {
	b.setup = append(b.setup, fn)
	return b
}

// Frontend sets the main window content provider.
func (b *Builder) Frontend(f Frontend) *Builder {
	b.frontend = f
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Run initialises plugins, runs setup callbacks, mounts the front-end and blocks
// in the event loop. It returns nil when the loop ends normally. Cancelling ctx
// quits the application.
func (b *Builder) Run(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}

	h, err := b.build()
	if err != nil {
		return err
	}
	defer h.closePlugins()

	for _, p := range b.plugins {
		h.log.Debug().Str("plugin", p.Name()).Msg("initializing plugin")
		if err := p.Init(h); err != nil {
			return fmt.Errorf("failed to initialize plugin %q: %w", p.Name(), err)
		}
		h.plugins = append(h.plugins, p)
	}

	for _, fn := range b.setup {
		if err := fn(h); err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
	}

	if b.frontend != nil {
		if err := b.frontend.Mount(h); err != nil {
			return fmt.Errorf("failed to mount front-end: %w", err)
		}
	}

	return h.loop(ctx)
}

// build creates the toolkit app and main window. Drivers that cannot start
// (no display, missing GL) tend to panic, so the panic becomes an error here.
func (b *Builder) build() (h *Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Debug().Str("stack", string(debug.Stack())).Msg("UI runtime panicked during start")
			err = fmt.Errorf("failed to start UI runtime: %v", r)
		}
	}()

	a := b.newApp()
	if a == nil {
		return nil, errors.New("failed to start UI runtime: no application")
	}

	window := a.NewWindow(b.window.Title)
	window.Resize(fyne.NewSize(b.window.Width, b.window.Height))
	window.SetMaster()

	commands := make(map[string]Handler, len(b.commands))
	for name, fn := range b.commands {
		commands[name] = fn
	}

	return &Handle{
		app:      a,
		window:   window,
		log:      b.log,
		commands: commands,
	}, nil
}

// Handle is the running application as seen by plugins, setup hooks and the
// front-end.
type Handle struct {
	app      fyne.App
	window   fyne.Window
	log      zerolog.Logger
	plugins  []Plugin
	commands map[string]Handler
}

// App returns the toolkit application.
func (h *Handle) App() fyne.App {
	return h.app
}

// MainWindow returns the main window.
func (h *Handle) MainWindow() fyne.Window {
	return h.window
}

// Logger returns the runtime logger.
func (h *Handle) Logger() zerolog.Logger {
	return h.log
}

// Plugin looks up an initialised plugin by name.
func (h *Handle) Plugin(name string) (Plugin, bool) {
	for _, p := range h.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// PluginNames returns initialised plugin names in initialisation order.
func (h *Handle) PluginNames() []string {
	names := make([]string, 0, len(h.plugins))
	for _, p := range h.plugins {
		names = append(names, p.Name())
	}
	return names
}

// CommandNames returns registered command names, sorted.
func (h *Handle) CommandNames() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a registered command.
func (h *Handle) Invoke(ctx context.Context, name string, args Args) (any, error) {
	fn, ok := h.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	h.log.Debug().Str("command", name).Msg("invoke")
	return fn(ctx, args)
}

// PluginAs looks up a plugin by name and asserts its concrete type.
func PluginAs[T Plugin](h *Handle, name string) (T, bool) {
	var zero T
	p, ok := h.Plugin(name)
	if !ok {
		return zero, false
	}
	typed, ok := p.(T)
	return typed, ok
}

func (h *Handle) loop(ctx context.Context) (err error) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("shutdown requested")
			fyne.Do(h.app.Quit)
		case <-done:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			h.log.Debug().Str("stack", string(debug.Stack())).Msg("event loop panicked")
			err = fmt.Errorf("event loop failed: %v", r)
		}
	}()

	h.log.Debug().Msg("entering event loop")
	h.window.ShowAndRun()
	h.log.Debug().Msg("event loop finished")
	return nil
}

func (h *Handle) closePlugins() {
	for i := len(h.plugins) - 1; i >= 0; i-- {
		closer, ok := h.plugins[i].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			h.log.Warn().Err(err).Str("plugin", h.plugins[i].Name()).Msg("failed to close plugin")
		}
	}
}
