package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be set after InitForCLI")
	}

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in CLI output")
	}

	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}

	if Enabled(LevelDebug) {
		t.Error("Enabled(LevelDebug) should be false at INFO level")
	}
}

func TestErrorAttachesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("test", errTest("boom"), "operation failed")

	output := buf.String()
	if !strings.Contains(output, "operation failed") || !strings.Contains(output, "error=boom") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	w := LineWriter("child", LevelDebug)
	_, _ = w.Write([]byte("first line\nsecond "))
	if strings.Contains(buf.String(), "second") {
		t.Fatal("partial line should be held until newline")
	}
	_, _ = w.Write([]byte("half\n\n"))

	output := buf.String()
	if !strings.Contains(output, "first line") {
		t.Errorf("expected first line in output: %s", output)
	}
	if !strings.Contains(output, "second half") {
		t.Errorf("expected joined second line in output: %s", output)
	}
	if strings.Count(output, "subsystem=child") != 2 {
		t.Errorf("expected exactly two entries, got: %s", output)
	}
}

func TestSince(t *testing.T) {
	got := Since(time.Now().Add(-1500 * time.Millisecond))
	if !strings.HasPrefix(got, "1.5") {
		t.Errorf("Since() = %s, want ~1.5s", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
