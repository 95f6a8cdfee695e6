package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(
		WithOutput(zapcore.AddSync(&buf)),
		WithLevel("warn"),
		WithFields(map[string]any{"component": "fit", "": "dropped"}),
	)

	logger.Info("hidden")
	logger.Warn("fit failed")
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "fit failed" || entry["level"] != "warn" || entry["component"] != "fit" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry[""]; ok {
		t.Fatal("empty field keys must be dropped")
	}
}

func TestNewDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(zapcore.AddSync(&buf)), WithDevelopment(true), WithLevel("debug"))
	logger.Debug("scan")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "scan") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("development output should be console text: %q", buf.String())
	}
}
