// Package watcher wraps fsnotify for follow mode and expands the path
// globs given on the command line.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/logging"
)

// Event represents a file change detected by the watcher.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher forwards change notifications for a set of files.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	paths  []string
	log    *zap.Logger
}

// New creates a Watcher for the files matching patterns. Patterns that
// fail to expand or files that cannot be watched are logged and skipped.
func New(patterns []string, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		log:    logging.OrNop(log),
	}

	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			w.log.Warn("failed to expand pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, m := range matches {
			if err := w.Add(m); err != nil {
				w.log.Warn("cannot watch file", zap.String("path", m), zap.Error(err))
			}
		}
	}

	return w, nil
}

// Start forwards write, create, remove and rename events until ctx is
// cancelled. Events is closed on return.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			default:
				// A pending event already wakes the consumer.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close releases the underlying notification handle. Use it when Start
// will not be called; Start closes the handle itself on return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Paths returns the files currently being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// Add watches one more file.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	w.paths = append(w.paths, abs)
	return nil
}

// Expand resolves each pattern to the files it matches, in pattern order
// and sorted within a pattern, without duplicates. A pattern without glob
// meta characters is returned as-is so a missing file surfaces as an open
// error later.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		var matches []string
		if hasMeta(pattern) {
			m, err := expandGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", pattern, err)
			}
			sort.Strings(m)
			matches = m
		} else {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like /var/log/**/*.log via doublestar.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
