package model

import (
	"sort"
	"strings"
	"time"
)

// Level is a normalized severity. The zero value means no level was found.
type Level int

const (
	LevelNone Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// Levels lists the known severities in increasing order.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return ""
	}
}

// Valid reports whether l is one of the known severities.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelCritical
}

// levelTokens maps every accepted severity spelling, upper-cased, to its level.
var levelTokens = map[string]Level{
	"DEBUG": LevelDebug, "DBG": LevelDebug, "TRACE": LevelDebug,
	"INFO": LevelInfo, "INFORMATION": LevelInfo, "NOTICE": LevelInfo,
	"WARNING": LevelWarning, "WARN": LevelWarning,
	"ERROR": LevelError, "ERR": LevelError,
	"CRITICAL": LevelCritical, "CRIT": LevelCritical, "FATAL": LevelCritical,
	"PANIC": LevelCritical, "ALERT": LevelCritical, "EMERG": LevelCritical,
	"EMERGENCY": LevelCritical,
}

// ParseLevel folds a severity token and its synonyms onto the fixed vocabulary.
// Matching is case-insensitive. Unknown tokens return false.
func ParseLevel(s string) (Level, bool) {
	lvl, ok := levelTokens[strings.ToUpper(strings.TrimSpace(s))]
	return lvl, ok
}

// LevelTokens returns every spelling ParseLevel accepts, longest first.
func LevelTokens() []string {
	tokens := make([]string, 0, len(levelTokens))
	for tok := range levelTokens {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}

// MarshalText renders the level name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts any recognized severity token; unknown tokens
// decode to LevelNone.
func (l *Level) UnmarshalText(b []byte) error {
	*l, _ = ParseLevel(string(b))
	return nil
}

// Format tags the grammar that produced an entry.
type Format string

const (
	FormatJSON           Format = "json"
	FormatApacheCombined Format = "apache_combined"
	FormatApacheCommon   Format = "apache_common"
	FormatSyslog         Format = "syslog"
	FormatPython         Format = "python"
	FormatRegex          Format = "regex"
	FormatGeneric        Format = "generic"
)

// LogEntry represents a single parsed log line. Entries are not modified
// after creation.
type LogEntry struct {
	Raw        string         `json:"raw"`
	LineNumber int            `json:"line"`
	Timestamp  *time.Time     `json:"timestamp,omitempty"`
	Level      Level          `json:"level,omitempty"`
	Message    string         `json:"message,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	Format     Format         `json:"format"`
}

// HasTimestamp reports whether a timestamp was recognized.
func (e LogEntry) HasTimestamp() bool { return e.Timestamp != nil }

// HasLevel reports whether a severity was recognized.
func (e LogEntry) HasLevel() bool { return e.Level.Valid() }

// Text returns the message, or the raw line when no message was extracted.
func (e LogEntry) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Raw
}

// RawLine is an unparsed line read by the tailer.
type RawLine struct {
	Text       string
	LineNumber int
	Source     string
}
