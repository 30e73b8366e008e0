package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"none", LevelNone},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(LevelWarn, &buf, "")

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("messages below the level leaked through:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("messages at or above the level missing:\n%s", out)
	}
}

func TestPrefixChaining(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(LevelDebug, &buf, "client")
	l.WithPrefix("channel").Info("hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "[client:channel]") {
		t.Errorf("chained prefix missing:\n%s", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("formatted message missing:\n%s", out)
	}
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("level tag missing:\n%s", out)
	}
}

func TestNoopLoggerOnEmptyPath(t *testing.T) {
	l, err := New(LevelInfo, "", "")
	if err != nil {
		t.Fatalf("New with empty path: %v", err)
	}
	// Must not panic or write anywhere.
	l.Info("goes nowhere")
	if err := l.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestGlobalDefaultsSilent(t *testing.T) {
	// Global without Init must be usable and quiet.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}
