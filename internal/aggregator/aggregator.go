package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/sift/internal/model"
)

// window is the span used for the events-per-second rate.
const window = 5 * time.Second

// Stats holds a point-in-time snapshot of follow-mode metrics.
type Stats struct {
	Uptime       string           `json:"uptime"`
	TotalEvents  int64            `json:"total_events"`
	EPS          float64          `json:"eps"`
	LevelCounts  map[string]int64 `json:"level_counts"`
	Unclassified int64            `json:"unclassified"`
	DroppedLogs  int64            `json:"dropped_logs"`
}

// Aggregator consumes a live entry stream and computes running metrics.
// It complements Analyze, which reduces a finished sequence.
type Aggregator struct {
	mu           sync.RWMutex
	startTime    time.Time
	totalEvents  int64
	levelCounts  map[string]int64
	unclassified int64
	recent       []time.Time // arrival times within the rate window
	dropped      func() int64
	entries      <-chan model.LogEntry
	now          func() time.Time
}

// New creates an Aggregator reading from entries. droppedFn reports entries
// lost upstream, typically hub.Dropped; it may be nil.
func New(entries <-chan model.LogEntry, droppedFn func() int64) *Aggregator {
	if droppedFn == nil {
		droppedFn = func() int64 { return 0 }
	}
	return &Aggregator{
		startTime:   time.Now(),
		levelCounts: make(map[string]int64),
		dropped:     droppedFn,
		entries:     entries,
		now:         time.Now,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		counts[k] = v
	}

	cutoff := a.now().Add(-window)
	var n int
	for _, t := range a.recent {
		if t.After(cutoff) {
			n++
		}
	}

	return Stats{
		Uptime:       a.now().Sub(a.startTime).Truncate(time.Second).String(),
		TotalEvents:  a.totalEvents,
		EPS:          float64(n) / window.Seconds(),
		LevelCounts:  counts,
		Unclassified: a.unclassified,
		DroppedLogs:  a.dropped(),
	}
}

// Start consumes entries until the context is cancelled or the channel
// closes.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-a.entries:
			if !ok {
				return
			}
			a.record(entry)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(entry model.LogEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalEvents++
	if entry.HasLevel() {
		a.levelCounts[entry.Level.String()]++
	} else {
		a.unclassified++
	}
	a.recent = append(a.recent, a.now())
}

// prune drops arrival times older than the rate window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().Add(-window)
	i := 0
	for _, t := range a.recent {
		if t.After(cutoff) {
			a.recent[i] = t
			i++
		}
	}
	a.recent = a.recent[:i]
}
