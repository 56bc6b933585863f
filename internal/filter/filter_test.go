package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/atikulmunna/sift/internal/model"
)

func at(sec int) *time.Time {
	t := time.Date(2024, 1, 15, 10, 30, sec, 0, time.UTC)
	return &t
}

func sample() []model.LogEntry {
	return []model.LogEntry{
		{Raw: "r1", LineNumber: 1, Timestamp: at(45), Level: model.LevelInfo, Message: "Starting application"},
		{Raw: "r2", LineNumber: 2, Timestamp: at(46), Level: model.LevelDebug, Message: "Loading configuration"},
		{Raw: "r3", LineNumber: 3, Timestamp: at(47), Level: model.LevelWarning, Message: "Configuration file not found"},
		{Raw: "r4", LineNumber: 4, Timestamp: at(48), Level: model.LevelError, Message: "Failed to connect to database"},
		{Raw: "r5", LineNumber: 5, Timestamp: at(49), Level: model.LevelCritical, Message: "System shutdown initiated"},
		{Raw: "no level or time database", LineNumber: 6},
	}
}

func lines(entries []model.LogEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.LineNumber
	}
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIdentity(t *testing.T) {
	in := sample()
	got, err := Apply(in, Spec{})
	if err != nil {
		t.Fatal(err)
	}
	if !equal(lines(got), lines(in)) {
		t.Errorf("expected identity, got %v", lines(got))
	}
}

func TestLevelThreshold(t *testing.T) {
	tests := []struct {
		min  model.Level
		want []int
	}{
		{model.LevelDebug, []int{1, 2, 3, 4, 5}},
		{model.LevelInfo, []int{1, 3, 4, 5}},
		{model.LevelWarning, []int{3, 4, 5}},
		{model.LevelError, []int{4, 5}},
		{model.LevelCritical, []int{5}},
	}
	for _, tc := range tests {
		got, err := Apply(sample(), Spec{MinLevel: tc.min})
		if err != nil {
			t.Fatal(err)
		}
		if !equal(lines(got), tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.min, tc.want, lines(got))
		}
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end *time.Time
		want       []int
	}{
		{"both", at(46), at(48), []int{2, 3, 4}},
		{"start only", at(48), nil, []int{4, 5}},
		{"end only", nil, at(45), []int{1}},
		{"inverted", at(49), at(45), []int{}},
	}
	for _, tc := range tests {
		got, err := Apply(sample(), Spec{Start: tc.start, End: tc.end})
		if err != nil {
			t.Fatal(err)
		}
		if !equal(lines(got), tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, lines(got))
		}
	}
}

func TestIncludeExclude(t *testing.T) {
	got, _ := Apply(sample(), Spec{Include: "database"})
	if !equal(lines(got), []int{4, 6}) {
		t.Errorf("include: expected [4 6], got %v", lines(got))
	}

	got, _ = Apply(sample(), Spec{Include: "config", IgnoreCase: true})
	if !equal(lines(got), []int{2, 3}) {
		t.Errorf("ignore case: expected [2 3], got %v", lines(got))
	}

	got, _ = Apply(sample(), Spec{Include: "(?i)config", Exclude: "not found"})
	if !equal(lines(got), []int{2}) {
		t.Errorf("exclude precedence: expected [2], got %v", lines(got))
	}
}

func TestCombined(t *testing.T) {
	got, err := Apply(sample(), Spec{MinLevel: model.LevelError, Include: "database"})
	if err != nil {
		t.Fatal(err)
	}
	if !equal(lines(got), []int{4}) {
		t.Errorf("expected [4], got %v", lines(got))
	}
}

func TestInvalidPattern(t *testing.T) {
	for _, spec := range []Spec{{Include: "[unclosed"}, {Exclude: "(bad"}} {
		got, err := Apply(sample(), spec)
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
		if got != nil {
			t.Errorf("expected no partial result, got %v", lines(got))
		}
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	in := sample()
	before := lines(in)
	f, err := Compile(Spec{MinLevel: model.LevelWarning})
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Apply(in)
	if !equal(lines(in), before) {
		t.Error("input mutated")
	}
}
