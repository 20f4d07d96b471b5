// Package logtail reads the end of Nevu's log file for the logs command.
package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// maxLineBytes bounds a single log line. Longer lines fail the read.
const maxLineBytes = 1 << 20

// Tail returns the last n lines of the file at path whose level is at least
// floor. A missing file yields no lines. Lines without a recognisable level
// (continuations, panics) are always kept.
func Tail(path string, n int, floor log.Level) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return tail(f, n, floor)
}

func tail(r io.Reader, n int, floor log.Level) ([]string, error) {
	ring := make([]string, n)
	next, count := 0, 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if lvl, ok := LineLevel(line); ok && lvl < floor {
			continue
		}
		ring[next] = line
		next = (next + 1) % n
		count = min(count+1, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	out := make([]string, 0, count)
	start := (next - count + n) % n
	for i := range count {
		out = append(out, ring[(start+i)%n])
	}
	return out, nil
}

// abbreviations charm log writes for each level in text output.
var abbreviations = map[string]log.Level{
	"DEBU": log.DebugLevel,
	"INFO": log.InfoLevel,
	"WARN": log.WarnLevel,
	"ERRO": log.ErrorLevel,
	"FATA": log.FatalLevel,
}

// LineLevel finds the level of a line written by the text formatter. The
// timestamp fields come first so the first few fields are checked.
func LineLevel(line string) (log.Level, bool) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields) && i < 4; i++ {
		if lvl, ok := abbreviations[fields[i]]; ok {
			return lvl, true
		}
	}
	return 0, false
}
