// Package invocation holds the process argument snapshot and the scan that
// picks the file argument handed to the front-end.
package invocation

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FlagPrefix marks an argument as an option rather than a path.
const FlagPrefix = "-"

// Arguments is an immutable copy of the process arguments. Element 0 is the
// executable path.
type Arguments struct {
	values []string
}

// Capture copies argv so later changes to the caller's slice are not observed.
func Capture(argv []string) Arguments {
	values := make([]string, len(argv))
	copy(values, argv)
	return Arguments{values: values}
}

// Values returns a copy of all arguments, executable included.
func (a Arguments) Values() []string {
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}

// Executable returns argument 0, or "" for an empty snapshot.
func (a Arguments) Executable() string {
	if len(a.values) == 0 {
		return ""
	}
	return a.values[0]
}

// Rest returns a copy of every argument after the executable.
func (a Arguments) Rest() []string {
	if len(a.values) <= 1 {
		return nil
	}
	out := make([]string, len(a.values)-1)
	copy(out, a.values[1:])
	return out
}

// Len returns the number of arguments, executable included.
func (a Arguments) Len() int {
	return len(a.values)
}

// FileArgScanner finds the file argument. It holds no mutable state and is safe
// for concurrent use.
type FileArgScanner struct {
	fs  afero.Fs
	log zerolog.Logger
}

// NewFileArgScanner creates a scanner that checks existence against fs. A nil
// fs means the operating system filesystem.
func NewFileArgScanner(fs afero.Fs, log zerolog.Logger) *FileArgScanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileArgScanner{fs: fs, log: log}
}

// FileArg returns the first argument after the executable that is not a flag
// and names an existing file or directory. Flags are skipped even when they
// happen to name an existing path.
func (s *FileArgScanner) FileArg(args Arguments) (string, bool) {
	for _, arg := range args.Rest() {
		if strings.HasPrefix(arg, FlagPrefix) {
			continue
		}
		if _, err := s.fs.Stat(arg); err != nil {
			s.log.Debug().Str("arg", arg).Err(err).Msg("argument is not an existing path")
			continue
		}
		s.log.Debug().Str("path", arg).Msg("file argument found")
		return arg, true
	}

	s.log.Info().Strs("args", args.Values()).Msg("no file argument found")
	return "", false
}

// Command is the name under which the file argument scan is invokable.
const Command = "get_file_arg"
