package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes LogEntry values to an output stream.
type Renderer interface {
	Render(entry model.LogEntry) error
}

// placeholder stands in for an absent timestamp or level in human output.
const placeholder = "-"

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleCrit  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleLine = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
)

// TextRenderer prints entries with severity-based colors.
type TextRenderer struct {
	w          io.Writer
	lineNumber bool
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
// When lineNumbers is set each line is prefixed with its source position.
func NewTextRenderer(w io.Writer, lineNumbers bool) *TextRenderer {
	return &TextRenderer{w: w, lineNumber: lineNumbers}
}

func (r *TextRenderer) Render(entry model.LogEntry) error {
	ts := placeholder
	if entry.HasTimestamp() {
		ts = entry.Timestamp.Format("2006-01-02 15:04:05")
	}

	line := fmt.Sprintf("%s %s %s", ts, styleLevelTag(entry.Level), entry.Text())
	if r.lineNumber {
		line = styleLine.Render(fmt.Sprintf("%6d", entry.LineNumber)) + " " + line
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleLevelTag(level model.Level) string {
	name := level.String()
	if name == "" {
		name = placeholder
	}
	padded := fmt.Sprintf("%-8s", name)
	switch level {
	case model.LevelDebug:
		return styleDebug.Render(padded)
	case model.LevelWarning:
		return styleWarn.Render(padded)
	case model.LevelError:
		return styleError.Render(padded)
	case model.LevelCritical:
		return styleCrit.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each entry as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(entry model.LogEntry) error {
	return r.enc.Encode(toRecord(entry))
}

// record is the structured form of an entry. Absent values are omitted.
type record struct {
	Line      int            `json:"line"`
	Timestamp string         `json:"timestamp,omitempty"`
	Level     string         `json:"level,omitempty"`
	Message   string         `json:"message,omitempty"`
	Raw       string         `json:"raw"`
	Format    model.Format   `json:"format,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func toRecord(e model.LogEntry) record {
	rec := record{
		Line:    e.LineNumber,
		Level:   e.Level.String(),
		Message: e.Message,
		Raw:     e.Raw,
		Format:  e.Format,
		Fields:  e.Fields,
	}
	if e.HasTimestamp() {
		rec.Timestamp = e.Timestamp.Format(time.RFC3339Nano)
	}
	return rec
}

// NewRenderer picks a renderer by name: "json" or anything else for text.
func NewRenderer(name string, w io.Writer, lineNumbers bool) Renderer {
	if name == "json" {
		return NewJSONRenderer(w)
	}
	return NewTextRenderer(w, lineNumbers)
}
