package parser

import (
	"regexp"
	"strings"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/timeparse"
)

// levelPattern finds a severity token anywhere in a line. It accepts the
// same spellings as model.ParseLevel.
var levelPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(model.LevelTokens(), "|") + `)\b`)

// GenericParser is the universal fallback. It recognizes a leading
// timestamp and a severity token but never requires either.
type GenericParser struct {
	tp *timeparse.Parser
}

func NewGenericParser(tp *timeparse.Parser) *GenericParser {
	return &GenericParser{tp: tp}
}

func (p *GenericParser) Format() model.Format { return model.FormatGeneric }

// Match accepts every line.
func (p *GenericParser) Match(string) bool { return true }

// Extract always succeeds. When neither a leading timestamp nor a leading
// level is found, the message is the raw line.
func (p *GenericParser) Extract(raw string) (model.LogEntry, bool) {
	entry := base(raw, model.FormatGeneric)
	rest := strings.TrimSpace(raw)
	stripped := false

	if ts, after, ok := p.tp.ParsePrefix(rest); ok {
		entry.Timestamp = &ts
		rest = after
		stripped = true
	}

	if lvl, after, ok := leadingLevel(rest); ok {
		entry.Level = lvl
		rest = after
		stripped = true
	} else {
		entry.Level = scanLevel(rest)
	}

	if stripped {
		entry.Message = strings.TrimSpace(rest)
	} else {
		entry.Message = raw
	}
	return entry, true
}

// leadingLevel recognizes a severity as the first token of s, with optional
// brackets or a trailing colon: "ERROR", "[error]", "WARN:".
func leadingLevel(s string) (model.Level, string, bool) {
	tok, after, _ := strings.Cut(s, " ")
	tok = strings.Trim(tok, "[]<>():")
	lvl, ok := model.ParseLevel(tok)
	if !ok {
		return model.LevelNone, s, false
	}
	return lvl, strings.TrimLeft(after, " -:|"), true
}

// scanLevel returns the first severity token found anywhere in s.
func scanLevel(s string) model.Level {
	m := levelPattern.FindString(s)
	if m == "" {
		return model.LevelNone
	}
	lvl, _ := model.ParseLevel(m)
	return lvl
}
