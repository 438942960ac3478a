package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	lg, err := New(&buf, "WARN")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lg.Info("gps: configured")
	lg.Warn("gps: power cycling", "missed", 20)

	out := buf.String()
	if strings.Contains(out, "configured") {
		t.Fatalf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "power cycling") || !strings.Contains(out, "missed=20") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(nil, "chatty"); err == nil {
		t.Fatalf("expected error")
	}
}
