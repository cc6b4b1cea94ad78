// Package logging builds the application's structured logger.
//
// Records go to a JSON log file inside the log directory and, in human-readable
// console form, to standard error. If the log directory cannot be prepared the
// logger degrades to standard error only instead of failing startup.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// FileName is the log file created inside the log directory.
const FileName = "nfo-viewer.log"

// Options controls where records are written.
type Options struct {
	Dir    string
	Level  zerolog.Level
	Stderr io.Writer
	// Tail, if set, receives a copy of every record (dev inspector).
	Tail io.Writer
}

// Logging owns the root logger and the open log file.
type Logging struct {
	Logger zerolog.Logger
	// Path is empty when file logging could not be enabled.
	Path string
	file *os.File
}

// New creates the root logger. The returned error describes why file logging
// was disabled; the Logging value is always usable.
func New(opts Options) (*Logging, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	writers := []io.Writer{consoleWriter(stderr)}
	if opts.Tail != nil {
		writers = append(writers, consoleWriter(opts.Tail))
	}

	l := &Logging{}
	file, path, fileErr := openLogFile(opts.Dir)
	if fileErr == nil {
		l.file = file
		l.Path = path
		writers = append(writers, file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()

	if fileErr != nil {
		l.Logger.Warn().Err(fileErr).Str("dir", opts.Dir).Msg("file logging disabled")
	}

	return l, fileErr
}

// Component returns a child logger tagged with the component name.
func (l *Logging) Component(name string) zerolog.Logger {
	return l.Logger.With().Str("component", name).Logger()
}

// Close closes the log file if one is open.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openLogFile(dir string) (*os.File, string, error) {
	if dir == "" {
		return nil, "", fmt.Errorf("log directory not set")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	return file, path, nil
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}
}
