package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/filter"
	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/store"
	"github.com/atikulmunna/sift/internal/timeparse"
)

// config is the resolved view of flags, environment and config file.
type config struct {
	Output       string
	Format       model.Format
	Pattern      string
	MaxLines     int
	SampleSize   int
	TopN         int
	PollInterval time.Duration
}

func (a *app) config() config {
	return config{
		Output:       strings.ToLower(a.v.GetString("output")),
		Format:       model.Format(strings.ToLower(a.v.GetString("format"))),
		Pattern:      a.v.GetString("pattern"),
		MaxLines:     a.v.GetInt("max_lines"),
		SampleSize:   a.v.GetInt("sample_size"),
		TopN:         a.v.GetInt("top_n"),
		PollInterval: a.v.GetDuration("poll_interval"),
	}
}

func (c config) storeOptions() store.Options {
	return store.Options{
		MaxLines:   c.MaxLines,
		SampleSize: c.SampleSize,
		Format:     c.Format,
		Pattern:    c.Pattern,
		Time:       timeparse.New(),
	}
}

func (c config) reportOptions() aggregator.Options {
	return aggregator.Options{TopN: c.TopN, Location: time.Local}
}

// filterFlags are the selection flags shared by filter, export and tail.
type filterFlags struct {
	level      string
	start      string
	end        string
	include    string
	exclude    string
	ignoreCase bool
}

func (f *filterFlags) register(cmd *cobra.Command, withTime bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.level, "level", "l", "", "minimum severity: debug, info, warning, error, critical")
	if withTime {
		fs.StringVar(&f.start, "start", "", "keep entries at or after this time")
		fs.StringVar(&f.end, "end", "", "keep entries at or before this time")
	}
	fs.StringVar(&f.include, "include", "", "keep entries whose message matches this regex")
	fs.StringVar(&f.exclude, "exclude", "", "drop entries whose message matches this regex")
	fs.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "case-insensitive --include and --exclude")
}

// compile validates the flags and builds the filter.
func (f *filterFlags) compile() (*filter.Filter, error) {
	spec := filter.Spec{
		Include:    f.include,
		Exclude:    f.exclude,
		IgnoreCase: f.ignoreCase,
	}

	if f.level != "" {
		lvl, ok := model.ParseLevel(f.level)
		if !ok {
			return nil, fmt.Errorf("invalid --level %q", f.level)
		}
		spec.MinLevel = lvl
	}

	tp := timeparse.New()
	for _, bound := range []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"start", f.start, &spec.Start},
		{"end", f.end, &spec.End},
	} {
		if bound.value == "" {
			continue
		}
		t, ok := tp.Parse(bound.value)
		if !ok {
			return nil, fmt.Errorf("invalid --%s %q: unrecognized time format", bound.name, bound.value)
		}
		*bound.dst = &t
	}

	return filter.Compile(spec)
}
