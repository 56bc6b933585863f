package aggregator

import (
	"fmt"
	"testing"
	"time"

	"github.com/atikulmunna/sift/internal/model"
)

func ts(h, m, s int) *time.Time {
	t := time.Date(2024, 1, 15, h, m, s, 0, time.UTC)
	return &t
}

func TestAnalyzeFiveLevels(t *testing.T) {
	entries := []model.LogEntry{
		{Raw: "a", LineNumber: 1, Timestamp: ts(10, 30, 45), Level: model.LevelInfo, Message: "Test"},
		{Raw: "b", LineNumber: 2, Timestamp: ts(10, 30, 46), Level: model.LevelDebug, Message: "a"},
		{Raw: "c", LineNumber: 3, Timestamp: ts(10, 30, 47), Level: model.LevelWarning, Message: "b"},
		{Raw: "d", LineNumber: 4, Timestamp: ts(10, 30, 48), Level: model.LevelError, Message: "c"},
		{Raw: "e", LineNumber: 5, Timestamp: ts(10, 30, 49), Level: model.LevelCritical, Message: "d"},
	}

	r := Analyze(entries, Options{Location: time.UTC})

	if r.TotalEntries != 5 {
		t.Errorf("expected 5 entries, got %d", r.TotalEntries)
	}
	for _, lvl := range []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"} {
		if r.LevelCounts[lvl] != 1 {
			t.Errorf("expected 1 %s, got %d", lvl, r.LevelCounts[lvl])
		}
	}
	if len(r.Levels) != 5 || r.Levels[0].Level != "DEBUG" || r.Levels[4].Level != "CRITICAL" {
		t.Errorf("expected levels in severity order, got %+v", r.Levels)
	}
	if r.Levels[0].Percent != 20 {
		t.Errorf("expected 20%%, got %f", r.Levels[0].Percent)
	}
	if r.ErrorCount != 2 {
		t.Errorf("expected 2 errors, got %d", r.ErrorCount)
	}
	if !r.HasTimeRange() || r.TimeRange.Duration != 4*time.Second {
		t.Errorf("expected 4s time range, got %+v", r.TimeRange)
	}
	if r.Hourly[10] != 5 {
		t.Errorf("expected 5 entries at hour 10, got %d", r.Hourly[10])
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze(nil, Options{})

	if r.TotalEntries != 0 || r.ErrorCount != 0 || r.Unclassified != 0 {
		t.Errorf("expected zero counts, got %+v", r)
	}
	if r.HasTimeRange() {
		t.Error("expected no time range")
	}
	if r.HasErrors() {
		t.Error("expected no errors")
	}
	if len(r.TopErrors) != 0 || len(r.CommonMessages) != 0 {
		t.Error("expected empty ranked lists")
	}
}

func TestAnalyzeUnclassified(t *testing.T) {
	entries := []model.LogEntry{
		{Raw: "plain one", Message: "plain one"},
		{Raw: "r", Level: model.LevelInfo, Message: "ok", Timestamp: ts(23, 0, 0)},
		{Raw: "{\"level\":", LineNumber: 3},
	}

	r := Analyze(entries, Options{Location: time.UTC})

	if r.Unclassified != 2 {
		t.Errorf("expected 2 unclassified, got %d", r.Unclassified)
	}
	if r.NoTimestamp != 2 {
		t.Errorf("expected 2 without timestamp, got %d", r.NoTimestamp)
	}
	if r.Levels[0].Percent < 33.3 || r.Levels[0].Percent > 33.4 {
		t.Errorf("expected INFO share of all entries, got %f", r.Levels[0].Percent)
	}
	sum := 0
	for _, n := range r.Hourly {
		sum += n
	}
	if sum != 1 || r.Hourly[23] != 1 {
		t.Errorf("expected only the timestamped entry in the histogram, got %v", r.Hourly)
	}
	if r.TimeRange.Duration != 0 {
		t.Errorf("expected zero duration for a single timestamp, got %v", r.TimeRange.Duration)
	}
}

func TestTopMessagesOrdering(t *testing.T) {
	var entries []model.LogEntry
	add := func(msg string, lvl model.Level, n int) {
		for i := 0; i < n; i++ {
			entries = append(entries, model.LogEntry{Raw: msg, Message: msg, Level: lvl})
		}
	}
	add("timeout", model.LevelError, 2)
	add("disk full", model.LevelCritical, 3)
	add("refused", model.LevelError, 2)
	add("hello", model.LevelInfo, 5)

	r := Analyze(entries, Options{})

	wantErrors := []MessageCount{{"disk full", 3}, {"timeout", 2}, {"refused", 2}}
	if len(r.TopErrors) != len(wantErrors) {
		t.Fatalf("expected %d top errors, got %+v", len(wantErrors), r.TopErrors)
	}
	for i, w := range wantErrors {
		if r.TopErrors[i] != w {
			t.Errorf("top error %d: expected %+v, got %+v", i, w, r.TopErrors[i])
		}
	}

	if r.CommonMessages[0] != (MessageCount{"hello", 5}) {
		t.Errorf("expected hello first, got %+v", r.CommonMessages[0])
	}
	if r.CommonMessages[2].Message != "timeout" {
		t.Errorf("expected first-seen tie-break, got %+v", r.CommonMessages)
	}
}

func TestTopNTruncates(t *testing.T) {
	var entries []model.LogEntry
	for i := 0; i < 25; i++ {
		msg := fmt.Sprintf("message %d", i)
		entries = append(entries, model.LogEntry{Raw: msg, Message: msg, Level: model.LevelError})
	}

	r := Analyze(entries, Options{})
	if len(r.TopErrors) != DefaultTopN || len(r.CommonMessages) != DefaultTopN {
		t.Errorf("expected %d, got %d/%d", DefaultTopN, len(r.TopErrors), len(r.CommonMessages))
	}

	r = Analyze(entries, Options{TopN: 3})
	if len(r.TopErrors) != 3 || r.TopErrors[0].Message != "message 0" {
		t.Errorf("unexpected top 3: %+v", r.TopErrors)
	}
}
