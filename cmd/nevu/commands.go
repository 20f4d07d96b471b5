package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/nevu/internal/config"
	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/logtail"
	"github.com/five82/nevu/internal/search"
)

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Link this client to your account",
		Long: `Link this client to your account with a PIN.

Nevu prints a code and a link. Approve the code in a browser and Nevu stores
the access token locally. Use --token to store a token you already have.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := flags.openApp(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			out := cmd.OutOrStdout()
			if strings.TrimSpace(token) != "" {
				if err := n.SaveToken(cmd.Context(), token); err != nil {
					return err
				}
				fmt.Fprintln(out, "Token saved.")
				return nil
			}

			err = n.Login(cmd.Context(), func(code, url string) {
				fmt.Fprintf(out, "Open %s\nand enter code %s\nWaiting for approval...\n", url, code)
			})
			if err != nil {
				return quietCancel(err)
			}
			fmt.Fprintln(out, "Signed in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "store this access token instead of running the PIN flow")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := flags.openApp(cmd)
			if err != nil {
				return err
			}
			defer n.Close()
			if err := n.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search movies and shows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query is empty")
			}
			n, err := flags.openLoggedIn(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			results, err := n.Client.Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			items, dirs := search.Partition(results)
			writeSearch(cmd.OutOrStdout(), query, items, dirs)
			return nil
		},
	}
}

func newWatchListCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"continue"},
		Short:   "Show what you are part way through",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			render, ok := watchListFormats[format]
			if !ok {
				return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
			}
			n, err := flags.openLoggedIn(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			if err := n.WatchList.Load(cmd.Context()); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), n.WatchList.Entries())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, yaml, json)")
	return cmd
}

func newLibrariesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List library sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := flags.openLoggedIn(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			dirs, err := n.Libraries(cmd.Context())
			if err != nil {
				return err
			}
			writeLibraries(cmd.OutOrStdout(), dirs)
			return nil
		},
	}
}

func newLogsCmd(flags *rootFlags) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out, err := logtail.Tail(cfg.LogFile, lines, logging.ParseLevel(level))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(out) == 0 {
				fmt.Fprintf(w, "No log lines in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range out {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines to show")
	cmd.Flags().StringVar(&level, "level", "debug", "minimum level (debug, info, warn, error)")
	return cmd
}
