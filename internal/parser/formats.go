package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/timeparse"
)

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

var (
	jsonLevelKeys   = []string{"level", "severity", "lvl", "loglevel"}
	jsonMessageKeys = []string{"message", "msg", "text"}
	jsonTimeKeys    = []string{"timestamp", "time", "ts", "@timestamp"}
)

// JSONParser handles one-object-per-line structured logs.
type JSONParser struct {
	tp   *timeparse.Parser
	skip map[string]bool
}

func NewJSONParser(tp *timeparse.Parser) *JSONParser {
	skip := make(map[string]bool)
	for _, keys := range [][]string{jsonLevelKeys, jsonMessageKeys, jsonTimeKeys} {
		for _, k := range keys {
			skip[k] = true
		}
	}
	return &JSONParser{tp: tp, skip: skip}
}

func (p *JSONParser) Format() model.Format { return model.FormatJSON }

func (p *JSONParser) Match(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return false
	}
	return json.Valid([]byte(trimmed))
}

// Extract declines lines that are not objects at all. A line that opens an
// object but fails to decode yields a minimal entry.
func (p *JSONParser) Extract(raw string) (model.LogEntry, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return model.LogEntry{}, false
	}

	data, err := decodeObject(trimmed)
	if err != nil {
		return base(raw, model.FormatGeneric), true
	}

	entry := base(raw, model.FormatJSON)

	if v, ok := field(data, jsonLevelKeys...); ok {
		entry.Level = jsonLevel(v)
	}
	if v, ok := field(data, jsonMessageKeys...); ok {
		entry.Message = collapse(v)
	}
	if v, ok := field(data, jsonTimeKeys...); ok {
		switch ts := v.(type) {
		case string:
			if t, ok := p.tp.Parse(ts); ok {
				entry.Timestamp = &t
			}
		case json.Number:
			if f, err := ts.Float64(); err == nil {
				if t, ok := p.tp.FromNumber(f); ok {
					entry.Timestamp = &t
				}
			}
		}
	}

	for k, v := range data {
		if p.skip[k] {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		switch v.(type) {
		case map[string]any, []any:
			entry.Fields[k] = collapse(v)
		default:
			entry.Fields[k] = v
		}
	}

	return entry, true
}

// decodeObject decodes one JSON object. Numbers stay json.Number so large
// integers such as request IDs keep every digit.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after object")
	}
	return data, nil
}

// jsonLevel accepts level names and the numeric levels used by pino/bunyan.
func jsonLevel(v any) model.Level {
	switch n := v.(type) {
	case string:
		lvl, _ := model.ParseLevel(n)
		return lvl
	case json.Number:
		l, err := n.Float64()
		if err != nil {
			return model.LevelNone
		}
		switch {
		case l >= 60:
			return model.LevelCritical
		case l >= 50:
			return model.LevelError
		case l >= 40:
			return model.LevelWarning
		case l >= 30:
			return model.LevelInfo
		case l >= 10:
			return model.LevelDebug
		}
	}
	return model.LevelNone
}

// field returns the first present, non-null value among keys.
func field(data map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// collapse renders a decoded JSON value as a string. Objects and arrays are
// re-encoded compactly.
func collapse(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ---------------------------------------------------------------------------
// CLF Parser (Apache/Nginx access logs)
// ---------------------------------------------------------------------------

var (
	commonRe   = regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d{3}) (\S+)`)
	combinedRe = regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d{3}) (\S+) "([^"]*)" "([^"]*)"`)
)

// CLFParser handles Common and Combined Log Format lines.
// Format: host ident authuser [date] "request" status bytes ["referer" "user-agent"]
type CLFParser struct {
	tp       *timeparse.Parser
	re       *regexp.Regexp
	combined bool
}

func NewCLFParser(tp *timeparse.Parser, combined bool) *CLFParser {
	re := commonRe
	if combined {
		re = combinedRe
	}
	return &CLFParser{tp: tp, re: re, combined: combined}
}

func (p *CLFParser) Format() model.Format {
	if p.combined {
		return model.FormatApacheCombined
	}
	return model.FormatApacheCommon
}

func (p *CLFParser) Match(line string) bool {
	return p.re.MatchString(line)
}

func (p *CLFParser) Extract(raw string) (model.LogEntry, bool) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.LogEntry{}, false
	}

	entry := base(raw, p.Format())
	if t, ok := p.tp.Parse(matches[4]); ok {
		entry.Timestamp = &t
	}

	status := matches[6]
	entry.Level = statusToLevel(status)
	entry.Message = matches[5]

	entry.Fields = map[string]any{
		"host":   matches[1],
		"ident":  matches[2],
		"user":   matches[3],
		"status": status,
		"bytes":  matches[7],
	}
	if p.combined {
		entry.Fields["referer"] = matches[8]
		entry.Fields["user_agent"] = matches[9]
	}

	return entry, true
}

// statusToLevel maps HTTP status codes to log severity levels.
func statusToLevel(status string) model.Level {
	if len(status) == 0 {
		return model.LevelInfo
	}
	switch status[0] {
	case '5':
		return model.LevelError
	case '4':
		return model.LevelWarning
	default:
		return model.LevelInfo
	}
}

// ---------------------------------------------------------------------------
// Syslog Parser (BSD / RFC3164)
// ---------------------------------------------------------------------------

// Example: <34>Oct 11 22:14:15 mymachine su[123]: 'su root' failed
var syslogRe = regexp.MustCompile(`^(?:<(?P<pri>\d{1,3})>)?(?P<ts>[A-Z][a-z]{2}\s{1,2}\d{1,2} \d{2}:\d{2}:\d{2}(?:\.\d{1,6})?)\s+(?P<host>\S+)\s+(?P<tag>[A-Za-z0-9_.\-/]+)(?:\[(?P<pid>[^\]]+)\])?:\s*(?P<msg>.*)$`)

// SyslogParser handles traditional syslog files.
type SyslogParser struct {
	tp *timeparse.Parser
}

func NewSyslogParser(tp *timeparse.Parser) *SyslogParser {
	return &SyslogParser{tp: tp}
}

func (p *SyslogParser) Format() model.Format { return model.FormatSyslog }

func (p *SyslogParser) Match(line string) bool {
	return syslogRe.MatchString(line)
}

func (p *SyslogParser) Extract(raw string) (model.LogEntry, bool) {
	m := syslogRe.FindStringSubmatch(raw)
	if m == nil {
		return model.LogEntry{}, false
	}

	groups := make(map[string]string)
	for i, name := range syslogRe.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}

	entry := base(raw, model.FormatSyslog)
	if t, ok := p.tp.Parse(groups["ts"]); ok {
		entry.Timestamp = &t
	}
	entry.Message = groups["msg"]

	entry.Fields = map[string]any{
		"host": groups["host"],
		"app":  groups["tag"],
	}
	if groups["pid"] != "" {
		entry.Fields["pid"] = groups["pid"]
	}

	if pri, err := strconv.Atoi(groups["pri"]); err == nil {
		entry.Level = severityToLevel(pri % 8)
		entry.Fields["facility"] = pri / 8
	} else {
		entry.Level = scanLevel(entry.Message)
	}

	return entry, true
}

// severityToLevel folds the eight syslog severities onto the level set.
func severityToLevel(sev int) model.Level {
	switch {
	case sev <= 2:
		return model.LevelCritical
	case sev == 3:
		return model.LevelError
	case sev == 4:
		return model.LevelWarning
	case sev <= 6:
		return model.LevelInfo
	default:
		return model.LevelDebug
	}
}

// ---------------------------------------------------------------------------
// Python Parser (logging module)
// ---------------------------------------------------------------------------

var (
	// INFO:root:message (logging.basicConfig default)
	pythonBasicRe = regexp.MustCompile(`^(DEBUG|INFO|WARNING|ERROR|CRITICAL):([^:]*):(.*)$`)
	// 2024-01-15 10:30:45,123 - name - LEVEL - message
	pythonAsctimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:,\d{3})?) - (\S+) - (DEBUG|INFO|WARNING|ERROR|CRITICAL) - (.*)$`)
)

// PythonParser handles the formats produced by Python's logging module.
type PythonParser struct {
	tp *timeparse.Parser
}

func NewPythonParser(tp *timeparse.Parser) *PythonParser {
	return &PythonParser{tp: tp}
}

func (p *PythonParser) Format() model.Format { return model.FormatPython }

func (p *PythonParser) Match(line string) bool {
	return pythonBasicRe.MatchString(line) || pythonAsctimeRe.MatchString(line)
}

func (p *PythonParser) Extract(raw string) (model.LogEntry, bool) {
	entry := base(raw, model.FormatPython)

	if m := pythonAsctimeRe.FindStringSubmatch(raw); m != nil {
		if t, ok := p.tp.Parse(m[1]); ok {
			entry.Timestamp = &t
		}
		entry.Level, _ = model.ParseLevel(m[3])
		entry.Message = m[4]
		entry.Fields = map[string]any{"logger": m[2]}
		return entry, true
	}

	if m := pythonBasicRe.FindStringSubmatch(raw); m != nil {
		entry.Level, _ = model.ParseLevel(m[1])
		entry.Fields = map[string]any{"logger": m[2]}
		msg := m[3]
		// basicConfig formats sometimes append asctime after the logger.
		if t, rest, ok := p.tp.ParsePrefix(msg); ok {
			entry.Timestamp = &t
			msg = rest
		}
		entry.Message = msg
		return entry, true
	}

	return model.LogEntry{}, false
}

// ---------------------------------------------------------------------------
// Regex Parser (user-defined patterns)
// ---------------------------------------------------------------------------

// RegexParser uses a user-supplied regex with named capture groups.
// Recognized groups: timestamp, level, message (all optional). Other named
// groups become fields.
type RegexParser struct {
	tp *timeparse.Parser
	re *regexp.Regexp
}

func NewRegexParser(pattern string, tp *timeparse.Parser) (*RegexParser, error) {
	if pattern == "" {
		return nil, fmt.Errorf("regex format requires a pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	if tp == nil {
		tp = timeparse.New()
	}
	return &RegexParser{tp: tp, re: re}, nil
}

func (p *RegexParser) Format() model.Format { return model.FormatRegex }

func (p *RegexParser) Match(line string) bool {
	return p.re.MatchString(line)
}

func (p *RegexParser) Extract(raw string) (model.LogEntry, bool) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.LogEntry{}, false
	}

	entry := base(raw, model.FormatRegex)
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		val := matches[i]

		switch name {
		case "level":
			entry.Level, _ = model.ParseLevel(val)
		case "message":
			entry.Message = val
		case "timestamp":
			if t, ok := p.tp.Parse(val); ok {
				entry.Timestamp = &t
			}
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]any)
			}
			entry.Fields[name] = val
		}
	}

	return entry, true
}
