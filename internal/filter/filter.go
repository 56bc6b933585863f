// Package filter selects entries by severity, time range and regex.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/atikulmunna/sift/internal/model"
)

// ErrInvalidPattern wraps regex compilation failures.
var ErrInvalidPattern = errors.New("invalid filter pattern")

// Spec describes a filter. The zero value selects everything.
type Spec struct {
	// MinLevel keeps entries at this severity or above. LevelNone disables
	// the level filter.
	MinLevel model.Level
	// Start and End bound the timestamp inclusively. Nil means unbounded.
	Start *time.Time
	End   *time.Time
	// Include keeps only entries whose text matches.
	Include string
	// Exclude drops entries whose text matches.
	Exclude string
	// IgnoreCase makes Include and Exclude case-insensitive.
	IgnoreCase bool
}

type predicate func(model.LogEntry) bool

// Filter is a compiled Spec. It is safe for concurrent use.
type Filter struct {
	preds []predicate
}

// Compile validates spec and builds its predicates. Regex errors are
// reported here so no filtering work happens with a bad spec.
func Compile(spec Spec) (*Filter, error) {
	f := &Filter{}

	if spec.MinLevel != model.LevelNone {
		threshold := spec.MinLevel
		f.preds = append(f.preds, func(e model.LogEntry) bool {
			return e.HasLevel() && e.Level >= threshold
		})
	}

	if spec.Start != nil || spec.End != nil {
		start, end := spec.Start, spec.End
		f.preds = append(f.preds, func(e model.LogEntry) bool {
			if !e.HasTimestamp() {
				return false
			}
			if start != nil && e.Timestamp.Before(*start) {
				return false
			}
			if end != nil && e.Timestamp.After(*end) {
				return false
			}
			return true
		})
	}

	if spec.Include != "" {
		re, err := compile(spec.Include, spec.IgnoreCase)
		if err != nil {
			return nil, err
		}
		f.preds = append(f.preds, func(e model.LogEntry) bool {
			return re.MatchString(e.Text())
		})
	}

	if spec.Exclude != "" {
		re, err := compile(spec.Exclude, spec.IgnoreCase)
		if err != nil {
			return nil, err
		}
		f.preds = append(f.preds, func(e model.LogEntry) bool {
			return !re.MatchString(e.Text())
		})
	}

	return f, nil
}

func compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// IsIdentity reports whether the filter keeps every entry.
func (f *Filter) IsIdentity() bool {
	return len(f.preds) == 0
}

// Match reports whether e passes every predicate.
func (f *Filter) Match(e model.LogEntry) bool {
	for _, p := range f.preds {
		if !p(e) {
			return false
		}
	}
	return true
}

// Apply returns the matching entries in their original order. The input is
// never modified; an identity filter returns it unchanged.
func (f *Filter) Apply(entries []model.LogEntry) []model.LogEntry {
	if f.IsIdentity() {
		return entries
	}
	out := make([]model.LogEntry, 0)
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Apply compiles spec and applies it to entries.
func Apply(entries []model.LogEntry, spec Spec) ([]model.LogEntry, error) {
	f, err := Compile(spec)
	if err != nil {
		return nil, err
	}
	return f.Apply(entries), nil
}
