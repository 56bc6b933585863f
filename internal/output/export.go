package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/parquet-go/parquet-go"
)

// ErrUnknownFormat is returned for an unsupported export or report format.
var ErrUnknownFormat = errors.New("unknown output format")

// ExportFormat names an export representation.
type ExportFormat string

const (
	ExportJSON    ExportFormat = "json"    // array of records
	ExportJSONL   ExportFormat = "jsonl"   // one record per line
	ExportCSV     ExportFormat = "csv"     // line,timestamp,level,message
	ExportText    ExportFormat = "text"    // one human-readable line per entry
	ExportParquet ExportFormat = "parquet" // columnar, one row per entry
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportJSON, ExportJSONL, ExportCSV, ExportText, ExportParquet:
		return f, nil
	case "txt":
		return ExportText, nil
	case "ndjson":
		return ExportJSONL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatForPath infers the export format from a file extension.
func FormatForPath(path string) (ExportFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || ext == "log" {
		return ExportText, nil
	}
	return ParseExportFormat(ext)
}

// ExportFile writes entries to path. A failed write leaves whatever was
// written in place.
func ExportFile(path string, entries []model.LogEntry, format ExportFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Export(f, entries, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Export serializes entries to w.
func Export(w io.Writer, entries []model.LogEntry, format ExportFormat) error {
	switch format {
	case ExportJSON:
		return exportJSON(w, entries)
	case ExportJSONL:
		return exportJSONL(w, entries)
	case ExportCSV:
		return exportCSV(w, entries)
	case ExportText:
		return exportText(w, entries)
	case ExportParquet:
		return exportParquet(w, entries)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func exportJSON(w io.Writer, entries []model.LogEntry) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func exportJSONL(w io.Writer, entries []model.LogEntry) error {
	bw := bufio.NewWriter(w)
	r := NewJSONRenderer(bw)
	for _, e := range entries {
		if err := r.Render(e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// csvHeader is the fixed column order of the tabular form.
var csvHeader = []string{"line", "timestamp", "level", "message"}

func exportCSV(w io.Writer, entries []model.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := toRecord(e)
		row := []string{strconv.Itoa(rec.Line), rec.Timestamp, rec.Level, e.Text()}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportText(w io.Writer, entries []model.LogEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		rec := toRecord(e)
		ts, lvl := rec.Timestamp, rec.Level
		if ts == "" {
			ts = placeholder
		}
		if lvl == "" {
			lvl = placeholder
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%-8s\t%s\n", rec.Line, ts, lvl, e.Text()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// parquetRow is the columnar form of an entry. Empty optional columns are
// written as nulls.
type parquetRow struct {
	Line      int64  `parquet:"line"`
	Timestamp string `parquet:"timestamp,optional"`
	Level     string `parquet:"level,optional"`
	Message   string `parquet:"message,optional"`
	Raw       string `parquet:"raw"`
	Format    string `parquet:"format"`
}

func exportParquet(w io.Writer, entries []model.LogEntry) error {
	rows := make([]parquetRow, len(entries))
	for i, e := range entries {
		rec := toRecord(e)
		rows[i] = parquetRow{
			Line:      int64(rec.Line),
			Timestamp: rec.Timestamp,
			Level:     rec.Level,
			Message:   rec.Message,
			Raw:       rec.Raw,
			Format:    string(rec.Format),
		}
	}

	writer := parquet.NewGenericWriter[parquetRow](w, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("error writing to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing parquet writer: %w", err)
	}
	return nil
}
