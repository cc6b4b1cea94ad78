// Package main is the nfo-viewer executable: a desktop viewer for NFO files
// built on the Fyne framework.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Akaiko1/nfo-viewer/internal/bootstrap"
	"github.com/Akaiko1/nfo-viewer/internal/plugins/cliargs"
)

func init() {
	// Explorer launches and file associations must reach the UI.
	cobra.MousetrapHelpText = ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, bootstrap.DefaultOptions(os.Args))
	stop()
	os.Exit(code)
}

// run parses the command line and starts the application with base, which
// carries the captured arguments.
func run(ctx context.Context, base bootstrap.Options) int {
	code := bootstrap.ExitOK
	cmd := cliargs.NewCommand(func(cmd *cobra.Command, _ []string) error {
		opts := base
		if cmd.Flags().Changed(cliargs.FlagConfig) {
			opts.ConfigPath, _ = cmd.Flags().GetString(cliargs.FlagConfig)
		}
		if cmd.Flags().Changed(cliargs.FlagLogDir) {
			opts.LogDir, _ = cmd.Flags().GetString(cliargs.FlagLogDir)
		}

		code = bootstrap.Main(cmd.Context(), opts)
		return nil
	})

	args := base.Args
	if len(args) > 0 {
		args = args[1:]
	}
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		app := bootstrap.New(base)
		defer app.Close()
		app.Fail(err)
		return bootstrap.ExitFailure
	}
	return code
}
