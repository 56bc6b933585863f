package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/model"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

const barWidth = 30

// WriteReport renders r as "text", "json" or "yaml".
func WriteReport(w io.Writer, r aggregator.Report, format string) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, RenderReport(r)+"\n")
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// RenderReport formats r as terminal panels. Every section is present;
// empty dimensions show a placeholder instead of being omitted.
func RenderReport(r aggregator.Report) string {
	sections := []string{
		panel("Overview", overview(r)),
		panel("Levels", levels(r)),
		panel("Time Range", timeRange(r)),
		panel("Errors", errorsSection(r)),
		panel("Hourly Distribution", hourly(r)),
		panel("Common Messages", ranked(r.CommonMessages, "No messages")),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func panel(title, body string) string {
	return stylePanel.Render(styleTitle.Render(title) + "\n" + body)
}

func muted(s string) string { return styleMuted.Render(s) }

func overview(r aggregator.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total entries:      %d\n", r.TotalEntries)
	fmt.Fprintf(&b, "Without level:      %d\n", r.Unclassified)
	fmt.Fprintf(&b, "Without timestamp:  %d", r.NoTimestamp)
	formats := make([]string, 0, len(r.Formats))
	for f := range r.Formats {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)
	for _, f := range formats {
		fmt.Fprintf(&b, "\nFormat %-12s %d", f+":", r.Formats[model.Format(f)])
	}
	return b.String()
}

func levels(r aggregator.Report) string {
	if len(r.Levels) == 0 && r.Unclassified == 0 {
		return muted("No entries")
	}
	var lines []string
	for _, ls := range r.Levels {
		lines = append(lines, fmt.Sprintf("%-9s %6d  %5.1f%%", ls.Level, ls.Count, ls.Percent))
	}
	if r.Unclassified > 0 {
		lines = append(lines, fmt.Sprintf("%-9s %6d", "(none)", r.Unclassified))
	}
	return strings.Join(lines, "\n")
}

func timeRange(r aggregator.Report) string {
	if !r.HasTimeRange() {
		return muted("No time range available")
	}
	tr := r.TimeRange
	return fmt.Sprintf("Earliest: %s\nLatest:   %s\nDuration: %s",
		tr.Earliest.Format("2006-01-02 15:04:05"),
		tr.Latest.Format("2006-01-02 15:04:05"),
		tr.Duration)
}

func errorsSection(r aggregator.Report) string {
	if !r.HasErrors() {
		return muted("No errors found")
	}
	return fmt.Sprintf("Total errors: %d\n%s", r.ErrorCount, ranked(r.TopErrors, ""))
}

func hourly(r aggregator.Report) string {
	peak := 0
	for _, n := range r.Hourly {
		if n > peak {
			peak = n
		}
	}
	if peak == 0 {
		return muted("No timestamped entries")
	}
	var lines []string
	for h, n := range r.Hourly {
		if n == 0 {
			continue
		}
		bar := strings.Repeat("█", (n*barWidth+peak-1)/peak)
		lines = append(lines, fmt.Sprintf("%02d:00 %-*s %d", h, barWidth, bar, n))
	}
	return strings.Join(lines, "\n")
}

func ranked(items []aggregator.MessageCount, empty string) string {
	if len(items) == 0 {
		return muted(empty)
	}
	lines := make([]string, len(items))
	for i, mc := range items {
		lines[i] = fmt.Sprintf("%5d  %s", mc.Count, truncate(mc.Message, 80))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
