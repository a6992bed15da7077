package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelDebug))

	log.Info("batch validated", "transitions", 3)

	line := buf.String()
	if !strings.Contains(line, "[INF] batch validated transitions=3") {
		t.Errorf("unexpected line: %q", line)
	}

	if !strings.HasSuffix(line, "\n") {
		t.Error("line should end with newline")
	}
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelWarn))

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered")
	}
	if !strings.Contains(out, "[WRN] shown") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelInfo)).With("owner", "abcd")

	log.Info("checked", "ok", true)

	if !strings.Contains(buf.String(), "checked owner=abcd ok=true") {
		t.Errorf("attrs not kept: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
