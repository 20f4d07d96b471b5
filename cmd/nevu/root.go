package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/nevu/internal/app"
)

// version is overridden at build time with -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "nevu",
		Short: "Terminal client for a Plex media server",
		Long: `Nevu browses a Plex media server from the terminal.

Run without a subcommand to open the interactive UI. Link this client to
your account first with "nevu login".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return quietCancel(app.Run(cmd.Context(), flags.appOptions(nil)))
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/nevu/config.toml)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newSearchCmd(flags),
		newWatchListCmd(flags),
		newLibrariesCmd(flags),
		newLogsCmd(flags),
	)
	return cmd
}

// appOptions maps flags onto app options. Subcommands pass their stderr so
// verbose logs show up next to the output; the TUI always logs to file.
func (f *rootFlags) appOptions(stderr io.Writer) app.Options {
	opts := app.Options{ConfigPath: f.configPath, Verbose: f.verbose}
	if f.verbose && stderr != nil {
		opts.LogWriter = stderr
	}
	return opts
}

// openApp builds the app for a one-shot subcommand. The caller must Close it.
func (f *rootFlags) openApp(cmd *cobra.Command) (*app.Nevu, error) {
	return app.New(cmd.Context(), f.appOptions(cmd.ErrOrStderr()))
}

// openLoggedIn is openApp plus the login check.
func (f *rootFlags) openLoggedIn(cmd *cobra.Command) (*app.Nevu, error) {
	n, err := f.openApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := n.RequireLogin(); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// quietCancel drops the error from an interrupted run.
func quietCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
