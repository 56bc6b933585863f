// Package tailer yields the last lines of a stream and, in follow mode,
// every complete line appended afterwards.
package tailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/logging"
	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/parser"
	"github.com/atikulmunna/sift/internal/timeparse"
	"github.com/atikulmunna/sift/internal/watcher"
)

// DefaultPollInterval is how often follow mode checks for new bytes when no
// file notification arrives.
const DefaultPollInterval = 250 * time.Millisecond

// Options configures a Tailer.
type Options struct {
	// LastN is the number of trailing non-blank lines emitted first.
	LastN int
	// Follow keeps reading appended lines until the context is cancelled.
	Follow bool
	// Format skips detection when set.
	Format  model.Format
	Pattern string
	Time    *timeparse.Parser

	PollInterval time.Duration
	Logger       *zap.Logger
}

// Tailer reads one stream and emits parsed entries on Entries.
type Tailer struct {
	opts   Options
	parser parser.Parser
	out    chan model.LogEntry
	source string
	log    *zap.Logger
}

// New creates a Tailer. It fails only when an explicit format cannot be
// built, such as an invalid regex pattern.
func New(opts Options) (*Tailer, error) {
	if opts.Time == nil {
		opts.Time = timeparse.New()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.LastN < 0 {
		opts.LastN = 0
	}

	t := &Tailer{
		opts: opts,
		out:  make(chan model.LogEntry, 512),
		log:  logging.OrNop(opts.Logger),
	}
	if opts.Format != "" {
		p, err := parser.New(opts.Format, parser.Options{Pattern: opts.Pattern, Time: opts.Time})
		if err != nil {
			return nil, err
		}
		t.parser = p
	}
	return t, nil
}

// Entries returns the channel where parsed entries are sent. It is closed
// when Tail or TailFile returns.
func (t *Tailer) Entries() <-chan model.LogEntry {
	return t.out
}

// TailFile tails the file at path. In follow mode fsnotify events wake the
// reader early; polling covers filesystems without notifications. The file
// is closed before TailFile returns.
func (t *Tailer) TailFile(ctx context.Context, path string) error {
	defer close(t.out)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t.source = path

	var wake <-chan watcher.Event
	if t.opts.Follow {
		w, err := watcher.New(nil, t.log)
		if err == nil {
			if err = w.Add(path); err != nil {
				w.Close()
			}
		}
		if err != nil {
			t.log.Debug("file notifications unavailable, polling only", zap.String("path", path), zap.Error(err))
		} else {
			wctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go w.Start(wctx)
			wake = w.Events
		}
	}

	return t.run(ctx, f, wake)
}

// Tail tails an already-open stream. Cancellation is only observed between
// reads, so a stream whose Read blocks delays it until data arrives.
func (t *Tailer) Tail(ctx context.Context, r io.Reader) error {
	defer close(t.out)
	if t.source == "" {
		t.source = "stream"
	}
	return t.run(ctx, r, nil)
}

func (t *Tailer) run(ctx context.Context, r io.Reader, wake <-chan watcher.Event) error {
	br := bufio.NewReader(r)
	ring := newRing(t.opts.LastN)
	lineNo := 0

	// Read to the end keeping only the last N lines; nothing is parsed yet.
	pending, err := readLines(br, "", func(line string) {
		lineNo++
		if strings.TrimSpace(line) != "" {
			ring.push(model.RawLine{Text: line, LineNumber: lineNo, Source: t.source})
		}
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", t.source, err)
	}
	if !t.opts.Follow && pending != "" {
		lineNo++
		if strings.TrimSpace(pending) != "" {
			ring.push(model.RawLine{Text: pending, LineNumber: lineNo, Source: t.source})
		}
		pending = ""
	}

	batch := ring.lines()
	p := t.parserFor(batch)
	for _, raw := range batch {
		if !t.emit(ctx, p.Parse(raw.Text, raw.LineNumber)) {
			return nil
		}
	}
	t.log.Debug("initial batch emitted", zap.String("source", t.source), zap.Int("lines", len(batch)))

	if !t.opts.Follow {
		return nil
	}

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			t.log.Debug("file event", zap.String("path", ev.Path), zap.Stringer("op", ev.Op))
		case <-ticker.C:
		}

		if f, ok := r.(*os.File); ok && truncated(f) {
			t.log.Info("file truncated, reading from start", zap.String("path", t.source))
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek %s: %w", t.source, err)
			}
			br.Reset(f)
			pending = ""
		}

		stopped := false
		pending, err = readLines(br, pending, func(line string) {
			lineNo++
			if stopped || strings.TrimSpace(line) == "" {
				return
			}
			stopped = !t.emit(ctx, p.Parse(line, lineNo))
		})
		if stopped {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", t.source, err)
		}
	}
}

// parserFor returns the explicit parser, or detects one from the batch.
// With nothing to sample each line picks its own grammar.
func (t *Tailer) parserFor(batch []model.RawLine) parser.Parser {
	if t.parser != nil {
		return t.parser
	}
	if len(batch) == 0 {
		return parser.NewAutoParser(t.opts.Time)
	}

	sample := make([]string, 0, parser.SampleSize)
	for _, raw := range batch {
		if len(sample) == parser.SampleSize {
			break
		}
		sample = append(sample, raw.Text)
	}
	format := parser.DetectWith(sample, t.opts.Time)
	p, err := parser.New(format, parser.Options{Time: t.opts.Time})
	if err != nil {
		return parser.NewAutoParser(t.opts.Time)
	}
	t.parser = p
	return p
}

func (t *Tailer) emit(ctx context.Context, entry model.LogEntry) bool {
	select {
	case t.out <- entry:
		return true
	case <-ctx.Done():
		return false
	}
}

// readLines calls fn for every newline-terminated line available in br,
// prefixed by pending. It returns the trailing unterminated bytes.
func readLines(br *bufio.Reader, pending string, fn func(string)) (string, error) {
	for {
		chunk, err := br.ReadString('\n')
		if err == io.EOF {
			return pending + chunk, nil
		}
		if err != nil {
			return pending, err
		}
		line := strings.TrimSuffix(pending+chunk, "\n")
		fn(strings.TrimSuffix(line, "\r"))
		pending = ""
	}
}

// truncated reports whether f shrank below the current read offset.
func truncated(f *os.File) bool {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Size() < pos
}

// ring keeps the last n lines pushed.
type ring struct {
	buf  []model.RawLine
	next int
	full bool
}

func newRing(n int) *ring {
	return &ring{buf: make([]model.RawLine, n)}
}

func (r *ring) push(l model.RawLine) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = l
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// lines returns the kept lines oldest first.
func (r *ring) lines() []model.RawLine {
	if !r.full {
		return append([]model.RawLine(nil), r.buf[:r.next]...)
	}
	out := make([]model.RawLine, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
