package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/atikulmunna/sift/internal/model"
)

// DefaultTopN is the number of messages kept in ranked lists.
const DefaultTopN = 10

// LevelStat is the count and share of one severity.
type LevelStat struct {
	Level   string  `json:"level" yaml:"level"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// MessageCount is a message and how often it occurred.
type MessageCount struct {
	Message string `json:"message" yaml:"message"`
	Count   int    `json:"count" yaml:"count"`
}

// TimeRange spans the earliest and latest timestamps seen.
type TimeRange struct {
	Earliest time.Time     `json:"earliest" yaml:"earliest"`
	Latest   time.Time     `json:"latest" yaml:"latest"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Report summarizes a sequence of entries.
type Report struct {
	TotalEntries int `json:"total_entries" yaml:"total_entries"`

	// Levels lists the known severities that occur, in severity order.
	// Percentages are of TotalEntries.
	Levels      []LevelStat    `json:"levels" yaml:"levels"`
	LevelCounts map[string]int `json:"level_counts" yaml:"level_counts"`
	// Unclassified counts entries without a recognized level.
	Unclassified int `json:"unclassified" yaml:"unclassified"`
	// NoTimestamp counts entries without a recognized timestamp.
	NoTimestamp int `json:"no_timestamp" yaml:"no_timestamp"`

	// TimeRange is nil when no entry carries a timestamp.
	TimeRange *TimeRange `json:"time_range" yaml:"time_range"`

	ErrorCount int            `json:"error_count" yaml:"error_count"`
	TopErrors  []MessageCount `json:"top_errors" yaml:"top_errors"`

	// Hourly counts timestamped entries by hour of day.
	Hourly [24]int `json:"hourly" yaml:"hourly"`

	CommonMessages []MessageCount       `json:"common_messages" yaml:"common_messages"`
	Formats        map[model.Format]int `json:"formats" yaml:"formats"`
}

// HasTimeRange reports whether any entry carried a timestamp.
func (r Report) HasTimeRange() bool { return r.TimeRange != nil }

// HasErrors reports whether any ERROR or CRITICAL entry was seen.
func (r Report) HasErrors() bool { return r.ErrorCount > 0 }

// Options tunes Analyze.
type Options struct {
	// TopN bounds TopErrors and CommonMessages. Defaults to DefaultTopN.
	TopN int
	// Location selects the clock used for the hourly histogram.
	// Defaults to time.Local.
	Location *time.Location
}

// Analyze reduces entries to a Report. It never modifies entries and is
// safe to call concurrently over the same slice.
func Analyze(entries []model.LogEntry, opts Options) Report {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	r := Report{
		TotalEntries: len(entries),
		LevelCounts:  make(map[string]int),
		Formats:      make(map[model.Format]int),
	}

	levels := make(map[model.Level]int)
	errs := newCounter()
	common := newCounter()

	for _, e := range entries {
		r.Formats[e.Format]++
		msg := strings.TrimSpace(e.Text())
		common.add(msg)

		if e.HasLevel() {
			levels[e.Level]++
			if e.Level >= model.LevelError {
				r.ErrorCount++
				errs.add(msg)
			}
		} else {
			r.Unclassified++
		}

		if !e.HasTimestamp() {
			r.NoTimestamp++
			continue
		}
		ts := *e.Timestamp
		if r.TimeRange == nil {
			r.TimeRange = &TimeRange{Earliest: ts, Latest: ts}
		} else {
			if ts.Before(r.TimeRange.Earliest) {
				r.TimeRange.Earliest = ts
			}
			if ts.After(r.TimeRange.Latest) {
				r.TimeRange.Latest = ts
			}
		}
		r.Hourly[ts.In(opts.Location).Hour()]++
	}

	if r.TimeRange != nil {
		r.TimeRange.Duration = r.TimeRange.Latest.Sub(r.TimeRange.Earliest)
	}

	for _, lvl := range model.Levels {
		n := levels[lvl]
		if n == 0 {
			continue
		}
		r.LevelCounts[lvl.String()] = n
		r.Levels = append(r.Levels, LevelStat{
			Level:   lvl.String(),
			Count:   n,
			Percent: percent(n, r.TotalEntries),
		})
	}

	r.TopErrors = errs.top(opts.TopN)
	r.CommonMessages = common.top(opts.TopN)
	return r
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// counter tallies messages and remembers first-seen order for tie-breaks.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(msg string) {
	if _, ok := c.counts[msg]; !ok {
		c.order = append(c.order, msg)
	}
	c.counts[msg]++
}

// top returns up to n messages by descending count, earlier first on ties.
func (c *counter) top(n int) []MessageCount {
	out := make([]MessageCount, 0, len(c.order))
	for _, msg := range c.order {
		out = append(out, MessageCount{Message: msg, Count: c.counts[msg]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
