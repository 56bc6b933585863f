package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/store"
	"github.com/atikulmunna/sift/internal/watcher"
)

// stdinPath selects standard input wherever a path is accepted.
const stdinPath = "-"

// expandPaths resolves glob arguments. Every match is processed on its own.
func expandPaths(args []string) ([]string, error) {
	paths, err := watcher.Expand(args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matched the given patterns: %v", args)
	}
	return paths, nil
}

// load reads one source into a new store.
func (a *app) load(cmd *cobra.Command, path string) (*store.Store, error) {
	s := store.New(a.config().storeOptions())

	var n int
	var err error
	if path == stdinPath {
		n, err = s.Load(cmd.InOrStdin())
	} else {
		n, err = s.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	a.log.Debug("loaded",
		zap.String("path", path),
		zap.Int("entries", n),
		zap.String("format", string(s.Format())))
	return s, nil
}

// sample returns up to n non-blank lines from the head of path.
func sample(cmd *cobra.Command, path string, n int) ([]string, error) {
	var r io.Reader
	if path == stdinPath {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []string
	for len(lines) < n && scanner.Scan() {
		if line := strings.TrimSuffix(scanner.Text(), "\r"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// header separates per-file sections when several files are processed.
func header(w io.Writer, path string, multiple bool) {
	if multiple {
		fmt.Fprintf(w, "==> %s <==\n", path)
	}
}
