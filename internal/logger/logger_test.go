package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)

	log.Debug("hidden message")
	log.Info("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "visible message") {
		t.Error("info message should be logged at info level")
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)

	log.SetLevel(slog.LevelError)
	if log.GetLevel() != slog.LevelError {
		t.Errorf("GetLevel = %v, want %v", log.GetLevel(), slog.LevelError)
	}

	log.Warn("suppressed")
	log.Error("surfaced")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("warn message should be filtered at error level")
	}
	if !strings.Contains(out, "surfaced") {
		t.Error("error message should be logged at error level")
	}
}

func TestLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)

	log.Info("code issued", "election_id", 7, "person_id", 12)

	out := buf.String()
	if !strings.Contains(out, "election_id=7") || !strings.Contains(out, "person_id=12") {
		t.Errorf("expected structured attributes in output, got: %s", out)
	}
}
