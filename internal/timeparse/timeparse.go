// Package timeparse recognizes the timestamp layouts commonly found in log
// files and normalizes them to time.Time.
//
// Syslog-style timestamps carry no year; they are assigned the current year.
// Entries written across a year boundary are therefore misattributed. This is
// a known approximation.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// zoned layouts carry their own offset.
var zoned = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"02/Jan/2006:15:04:05 -0700",
}

// local layouts are interpreted in the parser's location.
// Fractional seconds (with '.' or ',') are accepted after the seconds field.
var local = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// syslogLayout is applied after the current year is prepended, so a date
// that does not exist in that year (Feb 29) fails instead of rolling over.
const syslogLayout = "2006 Jan 2 15:04:05"

// prefixes match a timestamp at the start of a line. The first group holds
// the timestamp text without surrounding brackets.
var prefixes = []*regexp.Regexp{
	regexp.MustCompile(`^\[?(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?)\]?`),
	regexp.MustCompile(`^\[?(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{1,9})?)\]?`),
	regexp.MustCompile(`^\[?(\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\]?`),
	regexp.MustCompile(`^([A-Z][a-z]{2}\s{1,2}\d{1,2} \d{2}:\d{2}:\d{2}(?:\.\d{1,6})?)`),
	regexp.MustCompile(`^(\d{13}|\d{10})\b`),
}

// separator matches the punctuation commonly found between a timestamp and
// the rest of the line.
var separator = regexp.MustCompile(`^[\s:|\-]*`)

// Parser converts timestamp text to time.Time. The zero value is not usable;
// use New.
type Parser struct {
	// Location is applied to layouts without a zone offset.
	Location *time.Location
	// Now supplies the year for year-less layouts.
	Now func() time.Time
}

// New returns a Parser using the local time zone and the wall clock.
func New() *Parser {
	return &Parser{Location: time.Local, Now: time.Now}
}

var std = New()

// Parse parses s with the default parser.
func Parse(s string) (time.Time, bool) { return std.Parse(s) }

// ParsePrefix parses a leading timestamp with the default parser.
func ParsePrefix(line string) (time.Time, string, bool) { return std.ParsePrefix(line) }

// Parse tries each known layout in order and returns the first successful
// parse. A false result means no layout applied; it is not an error.
func (p *Parser) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return time.Time{}, false
	}

	if isDigits(s) {
		return p.epoch(s)
	}

	for _, layout := range zoned {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range local {
		if t, err := time.ParseInLocation(layout, s, p.Location); err == nil {
			return t, true
		}
	}

	// Syslog: collapse the day padding ("Jan  5") and supply the year.
	year := p.Now().In(p.Location).Year()
	withYear := strconv.Itoa(year) + " " + strings.Join(strings.Fields(s), " ")
	if t, err := time.ParseInLocation(syslogLayout, withYear, p.Location); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// ParsePrefix recognizes a timestamp at the start of line and returns it
// together with the remainder of the line, stripped of leading separators.
func (p *Parser) ParsePrefix(line string) (time.Time, string, bool) {
	for _, re := range prefixes {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		t, ok := p.Parse(line[m[2]:m[3]])
		if !ok {
			continue
		}
		rest := line[m[1]:]
		rest = rest[len(separator.FindString(rest)):]
		return t, rest, true
	}
	return time.Time{}, line, false
}

// FromNumber interprets a numeric JSON value as Unix seconds, or
// milliseconds when the magnitude only makes sense as such.
func (p *Parser) FromNumber(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v >= 1e12 {
		return time.UnixMilli(int64(v)).In(p.Location), true
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).In(p.Location), true
}

func (p *Parser) epoch(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	switch len(s) {
	case 10:
		return time.Unix(n, 0).In(p.Location), true
	case 13:
		return time.UnixMilli(n).In(p.Location), true
	default:
		return time.Time{}, false
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
