package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"error filters info", "error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, "text", &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "json", &buf)
	logger.Info("hello", "runs", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSON handler did not emit valid JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["runs"] != float64(3) {
		t.Errorf("runs = %v, want 3", entry["runs"])
	}
}

func TestNewRunLogger_EmptyPath(t *testing.T) {
	rl := NewRunLogger("")
	if rl != nil {
		t.Error("expected nil RunLogger for empty path")
	}

	// Nil logger must still be safe to use.
	rl.Log(map[string]any{"event": "test"})
	rl.Close()
}

func TestRunLogger_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	rl := NewRunLogger(path)
	if rl == nil {
		t.Fatal("NewRunLogger returned nil for writable path")
	}
	defer rl.Close()

	rl.Log(map[string]any{"run": 0, "failure_rate": 0.25})
	rl.Log(map[string]any{"run": 1, "failure_rate": 0.3})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if first["run"] != float64(0) {
		t.Errorf("run = %v, want 0", first["run"])
	}
	if first["failure_rate"] != 0.25 {
		t.Errorf("failure_rate = %v, want 0.25", first["failure_rate"])
	}
	if _, ok := first["time"]; !ok {
		t.Error("expected 'time' field in run log entry")
	}
}

func TestRunLogger_DoesNotMutateCallerMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	rl := NewRunLogger(path)
	defer rl.Close()

	event := map[string]any{"run": 4}
	rl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestRunLogger_NilSafety(t *testing.T) {
	var rl *RunLogger
	rl.Log(map[string]any{"event": "should_not_panic"})
	rl.Close()
}

func TestRunLogger_LogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	rl := NewRunLogger(path)

	rl.Log(map[string]any{"run": 0})
	rl.Close()

	// Should be a no-op, not panic or error.
	rl.Log(map[string]any{"run": 1})
}

func TestRunLogger_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")

	a := NewRunLogger(path)
	a.Log(map[string]any{"run": 0})
	a.Close()

	b := NewRunLogger(path)
	b.Log(map[string]any{"run": 1})
	b.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 appended lines, got %d", len(lines))
	}
}
