package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "json format stdout",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "text format stderr",
			config: Config{Level: "debug", Format: "text", Output: "stderr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithConfig(tt.config)
			if Log == nil {
				t.Error("Log should not be nil")
			}
		})
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
		MaxSize:  1,
	})
	Log.Info("written to file")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "json")

	Log.Info("dropped")
	Log.Warn("kept", "n", 42, "elapsed", 1500*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["msg"] != "kept" || entry["n"] != float64(42) {
		t.Errorf("entry = %v", entry)
	}
	if entry["elapsed"] != "1.5s" {
		t.Errorf("elapsed = %v, want 1.5s", entry["elapsed"])
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "text")

	if FromContext(context.Background()) != Log {
		t.Error("empty context should yield the global logger")
	}

	ctx := IntoContext(context.Background(), "request_id", "req-1")
	ctx = IntoContext(ctx, "method", "uniform")
	WithContext(ctx, "n", 10).Info("sampling done")

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "method=uniform", "n=10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestInit_DebugLevel(t *testing.T) {
	Init("debug")
	if !Log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}
