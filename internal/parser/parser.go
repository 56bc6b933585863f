package parser

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/timeparse"
)

// SampleSize is the number of leading non-blank lines used for detection.
const SampleSize = 50

// Parser converts a raw log line into a structured LogEntry.
// Implementations never fail: the worst case is an entry holding only the
// raw text and line number.
type Parser interface {
	Parse(raw string, lineNumber int) model.LogEntry
}

// Grammar is one registered line format.
type Grammar interface {
	// Format returns the tag stamped on entries this grammar produces.
	Format() model.Format
	// Match reports whether the line looks like this format.
	Match(line string) bool
	// Extract parses the line. ok is false when the line does not fit the
	// grammar, in which case the caller degrades to the generic parser.
	Extract(raw string) (entry model.LogEntry, ok bool)
}

// Options configures parser construction.
type Options struct {
	// Pattern is the named-group regex used by the regex format.
	Pattern string
	// Time parses timestamps. Defaults to timeparse.New().
	Time *timeparse.Parser
}

func (o Options) timeParser() *timeparse.Parser {
	if o.Time != nil {
		return o.Time
	}
	return timeparse.New()
}

// registry returns the auto-detectable grammars in tie-break priority order.
// Adding a format means adding one entry here.
func registry(tp *timeparse.Parser) []Grammar {
	return []Grammar{
		NewJSONParser(tp),
		NewCLFParser(tp, true),
		NewCLFParser(tp, false),
		NewSyslogParser(tp),
		NewPythonParser(tp),
	}
}

// Formats lists every format tag accepted by New.
func Formats() []model.Format {
	return []model.Format{
		model.FormatJSON,
		model.FormatApacheCombined,
		model.FormatApacheCommon,
		model.FormatSyslog,
		model.FormatPython,
		model.FormatRegex,
		model.FormatGeneric,
	}
}

// ---------------------------------------------------------------------------
// Detection
// ---------------------------------------------------------------------------

// Detect scores the first SampleSize non-blank lines against every
// registered grammar and returns the best match. Ties go to the grammar
// registered first. Generic is returned when nothing matches.
func Detect(lines []string) model.Format {
	return DetectWith(lines, timeparse.New())
}

// DetectWith is Detect with an explicit timestamp parser.
func DetectWith(lines []string, tp *timeparse.Parser) model.Format {
	sample := make([]string, 0, SampleSize)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == SampleSize {
			break
		}
	}

	best, bestScore := model.FormatGeneric, 0
	for _, g := range registry(tp) {
		score := 0
		for _, l := range sample {
			if g.Match(l) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = g.Format(), score
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Format-bound line parser
// ---------------------------------------------------------------------------

// LineParser applies one grammar and degrades to the generic parser for
// lines the grammar cannot extract.
type LineParser struct {
	grammar Grammar
	generic *GenericParser
}

// New returns the parser for a format tag. It only fails for an unknown tag
// or an invalid regex pattern.
func New(format model.Format, opts Options) (*LineParser, error) {
	tp := opts.timeParser()
	generic := NewGenericParser(tp)

	var g Grammar
	switch format {
	case model.FormatJSON:
		g = NewJSONParser(tp)
	case model.FormatApacheCombined:
		g = NewCLFParser(tp, true)
	case model.FormatApacheCommon:
		g = NewCLFParser(tp, false)
	case model.FormatSyslog:
		g = NewSyslogParser(tp)
	case model.FormatPython:
		g = NewPythonParser(tp)
	case model.FormatRegex:
		rp, err := NewRegexParser(opts.Pattern, tp)
		if err != nil {
			return nil, err
		}
		g = rp
	case model.FormatGeneric, "":
		g = generic
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &LineParser{grammar: g, generic: generic}, nil
}

// Format returns the format the parser was built for.
func (p *LineParser) Format() model.Format {
	return p.grammar.Format()
}

func (p *LineParser) Parse(raw string, lineNumber int) model.LogEntry {
	entry, ok := p.grammar.Extract(raw)
	if !ok {
		entry, _ = p.generic.Extract(raw)
	}
	entry.LineNumber = lineNumber
	return entry
}

// ---------------------------------------------------------------------------
// Auto Parser (per-line detection)
// ---------------------------------------------------------------------------

// AutoParser picks a grammar for every line independently. It suits streams
// whose format is not known up front, such as a followed file that starts
// empty.
type AutoParser struct {
	grammars []Grammar
	generic  *GenericParser
}

func NewAutoParser(tp *timeparse.Parser) *AutoParser {
	if tp == nil {
		tp = timeparse.New()
	}
	return &AutoParser{
		grammars: registry(tp),
		generic:  NewGenericParser(tp),
	}
}

func (p *AutoParser) Parse(raw string, lineNumber int) model.LogEntry {
	for _, g := range p.grammars {
		if !g.Match(raw) {
			continue
		}
		if entry, ok := g.Extract(raw); ok {
			entry.LineNumber = lineNumber
			return entry
		}
	}
	entry, _ := p.generic.Extract(raw)
	entry.LineNumber = lineNumber
	return entry
}

// base returns an entry holding only the raw text.
func base(raw string, format model.Format) model.LogEntry {
	return model.LogEntry{
		Raw:    raw,
		Format: format,
	}
}
