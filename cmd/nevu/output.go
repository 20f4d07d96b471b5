package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/watchlist"
)

var watchListFormats = map[string]func(io.Writer, []watchlist.Entry) error{
	"table": writeWatchListTable,
	"yaml":  writeWatchListYAML,
	"json":  writeWatchListJSON,
}

func writeWatchListTable(w io.Writer, entries []watchlist.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Nothing in progress.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.DisplayTitle(),
			strconv.Itoa(int(e.Progress()*100)) + "%",
			e.Remaining().Round(time.Second).String(),
			e.LastViewedAt.Format("2006-01-02 15:04"),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TITLE", "PROGRESS", "LEFT", "LAST WATCHED").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeWatchListYAML(w io.Writer, entries []watchlist.Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeWatchListJSON(w io.Writer, entries []watchlist.Entry) error {
	if entries == nil {
		entries = []watchlist.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeSearch(w io.Writer, query string, items []plex.Metadata, dirs []plex.Directory) {
	fmt.Fprintf(w, "Results for %s\n", query)
	if len(dirs) > 0 {
		fmt.Fprintln(w, "\nCategories")
		for _, d := range dirs {
			fmt.Fprintf(w, "  %s  (%s)\n", d.Label(), d.BrowseKey())
		}
	}
	fmt.Fprintln(w)
	if len(items) == 0 {
		fmt.Fprintln(w, "No movies or shows found")
		return
	}
	fmt.Fprintln(w, "Movies & Shows")
	for _, item := range items {
		year := ""
		if item.Year > 0 {
			year = fmt.Sprintf(" (%d)", item.Year)
		}
		fmt.Fprintf(w, "  %s%s  [%s]\n", item.Title, year, item.Type)
	}
}

func writeLibraries(w io.Writer, dirs []plex.Directory) {
	if len(dirs) == 0 {
		fmt.Fprintln(w, "No libraries.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "TITLE", "TYPE")
	for _, d := range dirs {
		t.Row(d.Key, d.Title, d.Type)
	}
	fmt.Fprintln(w, t.String())
}
