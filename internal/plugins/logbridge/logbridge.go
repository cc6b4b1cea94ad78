// Package logbridge is the logging plugin. It hands component loggers to the
// front-end and routes the standard library log package, which the UI toolkit
// uses for its own diagnostics, into the structured logger.
package logbridge

import (
	"io"
	"log"

	"github.com/rs/zerolog"

	"github.com/Akaiko1/nfo-viewer/internal/host"
)

// Name is the plugin name.
const Name = "log"

// Plugin implements host.Plugin.
type Plugin struct {
	root zerolog.Logger

	prevOutput io.Writer
	prevFlags  int
	prevPrefix string
	redirected bool
}

// New creates the plugin around the root logger.
func New(root zerolog.Logger) *Plugin {
	return &Plugin{root: root}
}

// Name implements host.Plugin.
func (p *Plugin) Name() string { return Name }

// Init redirects the standard logger.
func (p *Plugin) Init(h *host.Handle) error {
	p.prevOutput = log.Writer()
	p.prevFlags = log.Flags()
	p.prevPrefix = log.Prefix()

	toolkit := p.Logger("toolkit")
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(levelWriter{log: toolkit, level: zerolog.WarnLevel})
	p.redirected = true

	p.root.Debug().Msg("standard logger redirected")
	return nil
}

// Logger returns a child logger tagged with the component name.
func (p *Plugin) Logger(component string) zerolog.Logger {
	return p.root.With().Str("component", component).Logger()
}

// Close restores the standard logger.
func (p *Plugin) Close() error {
	if !p.redirected {
		return nil
	}
	log.SetOutput(p.prevOutput)
	log.SetFlags(p.prevFlags)
	log.SetPrefix(p.prevPrefix)
	p.redirected = false
	return nil
}

// levelWriter turns each standard log line into one structured record.
type levelWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.log.WithLevel(w.level).Msg(msg)
	return len(p), nil
}
