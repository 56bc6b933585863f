package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/parser"
	"github.com/atikulmunna/sift/internal/timeparse"
)

// ErrNilReader is returned when Load is called without a stream.
var ErrNilReader = errors.New("store: nil reader")

// Options controls how a stream is loaded.
type Options struct {
	// MaxLines caps the number of non-blank lines loaded. Zero means no cap.
	MaxLines int
	// SampleSize is the number of leading non-blank lines used for format
	// detection. Zero means parser.SampleSize.
	SampleSize int
	// Format skips detection when set.
	Format model.Format
	// Pattern is the named-group regex for the regex format.
	Pattern string
	// Time parses timestamps. Defaults to timeparse.New().
	Time *timeparse.Parser
}

// Store holds the entries of one loaded stream in their original order.
//
// Load is not reentrant. Entries returns a snapshot that stays valid while
// a later Load or Append runs, so filtering and statistics never block on
// the tailer feeding the store.
type Store struct {
	opts Options

	mu      sync.RWMutex
	entries []model.LogEntry
	format  model.Format
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Time == nil {
		opts.Time = timeparse.New()
	}
	return &Store{opts: opts, format: opts.Format}
}

// LoadFile opens path and loads it.
func (s *Store) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		s.reset()
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := s.Load(f)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

// Load reads r line by line, replacing any previous content, and returns
// the number of entries loaded. Blank lines are skipped but still count
// towards line numbers. Only I/O errors are returned; on error the store is
// left empty.
func (s *Store) Load(r io.Reader) (int, error) {
	if r == nil {
		s.reset()
		return 0, ErrNilReader
	}

	br := bufio.NewReader(r)
	lineNo := 0
	next := func() (string, int, error) {
		for {
			line, err := readLine(br)
			if err != nil {
				return "", 0, err
			}
			lineNo++
			if strings.TrimSpace(line) != "" {
				return line, lineNo, nil
			}
		}
	}

	limit := s.opts.MaxLines
	sampleCap := parser.SampleSize
	if s.opts.SampleSize > 0 {
		sampleCap = s.opts.SampleSize
	}
	if limit > 0 && limit < sampleCap {
		sampleCap = limit
	}

	// Sample the head of the stream for detection; the sampled lines are
	// parsed below like every other line.
	type numbered struct {
		text string
		n    int
	}
	var sample []numbered
	var readErr error
	for len(sample) < sampleCap {
		line, n, err := next()
		if err != nil {
			readErr = err
			break
		}
		sample = append(sample, numbered{line, n})
	}
	if readErr != nil && readErr != io.EOF {
		s.reset()
		return 0, readErr
	}

	format := s.opts.Format
	if format == "" {
		lines := make([]string, len(sample))
		for i, l := range sample {
			lines[i] = l.text
		}
		format = parser.DetectWith(lines, s.opts.Time)
	}

	p, err := parser.New(format, parser.Options{Pattern: s.opts.Pattern, Time: s.opts.Time})
	if err != nil {
		s.reset()
		return 0, err
	}

	entries := make([]model.LogEntry, 0, len(sample))
	for _, l := range sample {
		entries = append(entries, p.Parse(l.text, l.n))
	}

	if readErr == nil {
		for limit <= 0 || len(entries) < limit {
			line, n, err := next()
			if err == io.EOF {
				break
			}
			if err != nil {
				s.reset()
				return 0, err
			}
			entries = append(entries, p.Parse(line, n))
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.format = format
	s.mu.Unlock()

	return len(entries), nil
}

// Append adds an entry produced outside Load, such as by the tailer.
func (s *Store) Append(entry model.LogEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

// Entries returns the loaded entries. The returned slice must not be
// modified; appending to it never affects the store.
func (s *Store) Entries() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[:len(s.entries):len(s.entries)]
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Format returns the format used by the last load.
func (s *Store) Format() model.Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

func (s *Store) reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// readLine returns the next line without its terminator. A final line
// without a trailing newline is still returned; io.EOF follows it.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
