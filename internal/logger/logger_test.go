package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		if result := ParseLevel(tt.input); result != tt.expected {
			t.Errorf("ParseLevel(%q) = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(WarnLevel, "json", zapcore.AddSync(&buf)))
	defer SetDefault(nil)

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden 1") {
		t.Errorf("Info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("Warn message missing: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("Expected JSON output with level field, got: %s", out)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(DebugLevel, "text", zapcore.AddSync(&buf)))
	defer SetDefault(nil)

	Debug("formatted %s", "analysis")

	out := buf.String()
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "formatted analysis") {
		t.Errorf("Unexpected console output: %s", out)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	SetDefault(nil)
	Info("no logger configured")
	Error("still fine")
}
