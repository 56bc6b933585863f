package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/parser"
	"github.com/atikulmunna/sift/internal/timeparse"
)

func entries() []model.LogEntry {
	t1 := time.Date(2024, 1, 15, 10, 30, 48, 0, time.UTC)
	t2 := time.Date(2024, 1, 15, 10, 30, 49, 500e6, time.UTC)
	return []model.LogEntry{
		{Raw: "2024-01-15 10:30:48 ERROR Failed to connect", LineNumber: 4, Timestamp: &t1, Level: model.LevelError, Message: "Failed to connect", Format: model.FormatGeneric},
		{Raw: "2024-01-15 10:30:49.5 CRITICAL Shutdown, now", LineNumber: 5, Timestamp: &t2, Level: model.LevelCritical, Message: "Shutdown, now", Format: model.FormatGeneric},
		{Raw: "no level here", LineNumber: 7, Message: "no level here", Format: model.FormatGeneric},
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, entries(), ExportJSON); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if _, ok := got[2]["timestamp"]; ok {
		t.Error("expected timestamp to be omitted for entry without one")
	}
	if _, ok := got[2]["level"]; ok {
		t.Error("expected level to be omitted for entry without one")
	}
	if got[0]["timestamp"] != "2024-01-15T10:30:48Z" {
		t.Errorf("unexpected timestamp %v", got[0]["timestamp"])
	}
}

func TestExportJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, nil, ExportJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}

func TestExportJSONLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, entries(), ExportJSONL); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if parser.Detect(lines) != model.FormatJSON {
		t.Fatal("expected exported records to be detected as json")
	}

	p, err := parser.New(model.FormatJSON, parser.Options{Time: &timeparse.Parser{Location: time.UTC, Now: time.Now}})
	if err != nil {
		t.Fatal(err)
	}

	orig := entries()
	for i, line := range lines {
		back := p.Parse(line, i+1)
		if back.Message != orig[i].Message {
			t.Errorf("entry %d: message %q != %q", i, back.Message, orig[i].Message)
		}
		if back.Level != orig[i].Level {
			t.Errorf("entry %d: level %s != %s", i, back.Level, orig[i].Level)
		}
		if orig[i].HasTimestamp() {
			if !back.HasTimestamp() || !back.Timestamp.Equal(*orig[i].Timestamp) {
				t.Errorf("entry %d: timestamp %v != %v", i, back.Timestamp, orig[i].Timestamp)
			}
		} else if back.HasTimestamp() {
			t.Errorf("entry %d: unexpected timestamp %v", i, back.Timestamp)
		}
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, entries(), ExportCSV); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "line,timestamp,level,message" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[2][3] != "Shutdown, now" {
		t.Errorf("expected quoted message to survive, got %q", rows[2][3])
	}
	if len(rows[3]) != 4 || rows[3][1] != "" || rows[3][2] != "" {
		t.Errorf("expected empty timestamp and level columns, got %v", rows[3])
	}
}

func TestExportText(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, entries(), ExportText); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "ERROR") || !strings.Contains(lines[0], "Failed to connect") {
		t.Errorf("unexpected line %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "7\t-\t-") {
		t.Errorf("expected placeholders, got %q", lines[2])
	}
}

func TestExportParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, entries(), ExportParquet); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("PAR1")) {
		t.Error("expected parquet magic header")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if err := Export(&bytes.Buffer{}, entries(), "xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := ParseExportFormat("yaml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "errors.csv")

	format, err := FormatForPath(path)
	if err != nil || format != ExportCSV {
		t.Fatalf("expected csv from extension, got %s (%v)", format, err)
	}
	if err := ExportFile(path, entries(), format); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "line,timestamp,level,message") {
		t.Errorf("unexpected file content %q", data)
	}

	bad := filepath.Join(dir, "missing", "out.json")
	if err := ExportFile(bad, entries(), ExportJSON); err == nil {
		t.Error("expected error for unwritable destination")
	}
}

func TestWriteReport(t *testing.T) {
	r := aggregator.Analyze(entries(), aggregator.Options{Location: time.UTC})

	var text bytes.Buffer
	if err := WriteReport(&text, r, "text"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Total entries:      3", "ERROR", "Shutdown, now"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("expected %q in text report", want)
		}
	}

	var js bytes.Buffer
	if err := WriteReport(&js, r, "json"); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["total_entries"] != float64(3) {
		t.Errorf("expected total_entries 3, got %v", decoded["total_entries"])
	}

	var y bytes.Buffer
	if err := WriteReport(&y, r, "yaml"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(y.String(), "total_entries: 3") {
		t.Errorf("expected yaml report, got %s", y.String())
	}

	if err := WriteReport(&bytes.Buffer{}, r, "xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderReportPlaceholders(t *testing.T) {
	out := RenderReport(aggregator.Analyze(nil, aggregator.Options{}))
	for _, want := range []string{"No time range available", "No errors found", "Total entries:      0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in empty report", want)
		}
	}
}
