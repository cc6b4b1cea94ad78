// Package bootstrap handles application initialization and startup logic.
//
// It captures the invocation, configures logging, registers the runtime
// plugins and the get_file_arg command, and turns any startup or runtime
// failure into one error log record, one user notification and exit code 1.
package bootstrap

import (
	"context"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Akaiko1/nfo-viewer/internal/config"
	"github.com/Akaiko1/nfo-viewer/internal/host"
	"github.com/Akaiko1/nfo-viewer/internal/invocation"
	"github.com/Akaiko1/nfo-viewer/internal/logging"
	"github.com/Akaiko1/nfo-viewer/internal/notify"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/cliargs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/dialogs"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/fsbridge"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/logbridge"
	"github.com/Akaiko1/nfo-viewer/internal/ui"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// inspectorTailLines is how many log lines the inspector keeps.
const inspectorTailLines = 500

// Options contains everything Main needs. Zero values fall back to the
// production choice.
type Options struct {
	Args       []string
	ConfigPath string
	// LogDir overrides the configured log directory when set.
	LogDir string
	// Debug opens the developer inspector during setup.
	Debug    bool
	Stderr   io.Writer
	Notifier notify.Notifier
	// NewApp replaces the toolkit driver (tests use fyne's test app).
	NewApp func() fyne.App
	// FS backs the file argument scan and the filesystem plugin.
	FS          afero.Fs
	NewFrontend func(cfg *config.Config) host.Frontend
}

// DefaultOptions returns production options for argv.
func DefaultOptions(argv []string) Options {
	return Options{
		Args:     argv,
		Debug:    DebugBuild,
		Stderr:   os.Stderr,
		Notifier: notify.New(config.AppName),
	}
}

// App is one run of the application.
type App struct {
	opts Options
	args invocation.Arguments
	cfg  *config.Config
	logs *logging.Logging
	tail *logging.Ring
	log  zerolog.Logger
}

// New creates an App from opts.
func New(opts Options) *App {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New(config.AppName)
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.NewFrontend == nil {
		opts.NewFrontend = func(cfg *config.Config) host.Frontend { return ui.NewViewer(cfg) }
	}
	return &App{opts: opts, log: zerolog.Nop()}
}

// Main runs the application and returns the process exit code.
func Main(ctx context.Context, opts Options) int {
	a := New(opts)
	defer a.Close()

	if err := a.Startup(ctx); err != nil {
		a.Fail(err)
		return ExitFailure
	}
	return ExitOK
}

// Startup captures the invocation, configures logging, registers plugins and
// commands, and blocks in the event loop. It returns nil on a normal exit.
func (a *App) Startup(ctx context.Context) error {
	a.args = invocation.Capture(a.opts.Args)

	// Logging has to exist before a config error can be reported, so a bad
	// config still logs to the default directory.
	cfg, cfgErr := config.Load(a.opts.ConfigPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	if a.opts.LogDir != "" {
		cfg.LogDir = a.opts.LogDir
	}
	a.cfg = cfg
	a.initLogging(cfg.LogDir)

	if cfgErr != nil {
		return cfgErr
	}

	scanner := invocation.NewFileArgScanner(a.opts.FS, a.logs.Component("args"))

	builder := host.NewBuilder(a.logs.Component("runtime")).
		Window(host.WindowOptions{
			Title:  config.AppName,
			Width:  float32(cfg.WindowWidth),
			Height: float32(cfg.WindowHeight),
		}).
		Plugin(logbridge.New(a.log)).
		Plugin(fsbridge.New(a.opts.FS, cfg.MaxFileSize, a.logs.Component("fs"))).
		Plugin(dialogs.New(cfg.Extensions, a.logs.Component("dialog"))).
		Plugin(cliargs.New(a.args, a.logs.Component("cli"))).
		Command(invocation.Command, func(ctx context.Context, _ host.Args) (any, error) {
			if path, ok := scanner.FileArg(a.args); ok {
				return path, nil
			}
			return nil, nil
		}).
		Setup(a.setup).
		Frontend(a.opts.NewFrontend(cfg))

	if a.opts.NewApp != nil {
		builder.WithApp(a.opts.NewApp)
	}

	if err := builder.Run(ctx); err != nil {
		return err
	}

	a.log.Info().Msg("application exited")
	return nil
}

// Fail reports a terminal error: one error record, one notification. It can be
// called without Startup, e.g. when the command line did not parse.
func (a *App) Fail(err error) {
	if a.logs == nil {
		dir := a.opts.LogDir
		if dir == "" {
			dir = config.DefaultLogDir()
		}
		a.initLogging(dir)
	}
	a.log.Error().Err(err).Msg(config.AppName + " failed to start")
	a.opts.Notifier.NotifyFatal(err)
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}

func (a *App) initLogging(dir string) {
	opts := logging.Options{
		Dir:    dir,
		Level:  zerolog.DebugLevel,
		Stderr: a.opts.Stderr,
	}
	if a.opts.Debug {
		a.tail = logging.NewRing(inspectorTailLines)
		opts.Tail = a.tail
	}

	// The error only says file logging is off; New already logged it.
	a.logs, _ = logging.New(opts)
	a.log = a.logs.Logger
}

// setup is the one-time setup callback.
func (a *App) setup(h *host.Handle) error {
	a.log.Info().
		Strs("args", a.args.Values()).
		Str("version", config.Version).
		Msg(config.AppName + " starting")

	if a.opts.Debug {
		openInspector(h, inspectorState{
			args:    a.args,
			logPath: a.logs.Path,
			tail:    a.tail,
		})
		a.log.Debug().Msg("inspector opened")
	}

	a.log.Info().Msg("setup complete")
	return nil
}
