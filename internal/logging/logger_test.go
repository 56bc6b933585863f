package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	l.Debug("hidden")
	l.Info("shown", zap.String("path", "app.log"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "app.log") {
		t.Errorf("expected info line with field, got %q", out)
	}

	buf.Reset()
	NewWithWriter(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug output when verbose, got %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected a logger")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("expected the same logger back")
	}
}
