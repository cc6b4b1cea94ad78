// Package cliargs is the CLI-argument plugin. It owns the executable's argument
// schema and exposes the parsed matches to the front-end.
package cliargs

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Akaiko1/nfo-viewer/internal/config"
	"github.com/Akaiko1/nfo-viewer/internal/host"
	"github.com/Akaiko1/nfo-viewer/internal/invocation"
)

// Name is the plugin name.
const Name = "cli"

// FileArg is the match name of the positional file argument.
const FileArg = "file"

// Flag names.
const (
	FlagConfig = "config"
	FlagLogDir = "log-dir"
)

// NewCommand returns the root command describing the executable's arguments.
// Unknown flags are tolerated so that launchers and file associations can pass
// extra options without preventing startup.
func NewCommand(run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName + " [file]",
		Short: "A viewer for NFO files",
		Long: `nfo-viewer opens .nfo, .diz, .asc and .txt files in a desktop window.

The first argument that names an existing file is opened on startup; without
one, the window shows a drop target and an Open button.`,
		Version:            config.Version,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE:               run,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringP(FlagConfig, "c", "", "Path to YAML config file")
	cmd.Flags().String(FlagLogDir, "", "Directory for log files (overrides config)")

	return cmd
}

// ArgMatch is one parsed argument.
type ArgMatch struct {
	Value       any
	Occurrences int
}

// Matches maps argument names to their parsed values.
type Matches struct {
	Args map[string]ArgMatch
}

// File returns the positional file argument, if one was given.
func (m Matches) File() (string, bool) {
	match, ok := m.Args[FileArg]
	if !ok {
		return "", false
	}
	s, ok := match.Value.(string)
	return s, ok && s != ""
}

// IsFlagValue reports whether value was given as the value of a flag, such as
// the path after --config.
func (m Matches) IsFlagValue(value string) bool {
	for name, match := range m.Args {
		if name == FileArg || match.Occurrences == 0 {
			continue
		}
		if s, ok := match.Value.(string); ok && s == value {
			return true
		}
	}
	return false
}

// Parse matches args (executable excluded) against the schema.
func Parse(args []string) (Matches, error) {
	cmd := NewCommand(nil)
	flags := cmd.Flags()
	flags.Usage = func() {}

	m := Matches{Args: make(map[string]ArgMatch)}

	if err := cmd.ParseFlags(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			return Matches{}, fmt.Errorf("failed to parse arguments: %w", err)
		}
		m.Args["help"] = ArgMatch{Value: true, Occurrences: 1}
	}

	flags.VisitAll(func(f *pflag.Flag) {
		match := ArgMatch{Value: f.Value.String()}
		if f.Value.Type() == "bool" {
			match.Value = f.Value.String() == "true"
		}
		if f.Changed {
			match.Occurrences = 1
		}
		m.Args[f.Name] = match
	})

	positional := flags.Args()
	file := ArgMatch{Occurrences: len(positional)}
	if len(positional) > 0 {
		file.Value = positional[0]
	}
	m.Args[FileArg] = file

	return m, nil
}

// Plugin implements host.Plugin.
type Plugin struct {
	args    invocation.Arguments
	log     zerolog.Logger
	matches Matches
	err     error
}

// New creates the plugin over the captured invocation.
func New(args invocation.Arguments, log zerolog.Logger) *Plugin {
	return &Plugin{args: args, log: log}
}

// Name implements host.Plugin.
func (p *Plugin) Name() string { return Name }

// Init parses the invocation once. A parse error is kept for Matches rather
// than failing startup.
func (p *Plugin) Init(h *host.Handle) error {
	p.matches, p.err = Parse(p.args.Rest())
	if p.err != nil {
		p.log.Warn().Err(p.err).Msg("argument parse failed")
		return nil
	}
	if file, ok := p.matches.File(); ok {
		p.log.Debug().Str(FileArg, file).Msg("cli matches parsed")
	}
	return nil
}

// Matches returns the parse result.
func (p *Plugin) Matches() (Matches, error) {
	return p.matches, p.err
}
