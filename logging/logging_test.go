package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerPlain(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false).With("session", "s1")

	logger.Log(context.Background(), LevelSuccess, "prefetch stored", "index", 6)
	logger.Debug("hidden")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	for _, want := range []string{"[SUCCESS]", "prefetch stored", "session=s1", "index=6"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain handler wrote escape sequences: %q", out)
	}
}

func TestHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, false).Error("fetch failed", "err", "status 502 Bad Gateway")

	if !strings.Contains(buf.String(), `err="status 502 Bad Gateway"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, false).WithGroup("cache").Info("hit", "index", 3)

	if !strings.Contains(buf.String(), "cache.index=3") {
		t.Errorf("expected grouped key, got %q", buf.String())
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelInfo, "INFO"},
		{LevelSuccess, "SUCCESS"},
		{LevelHijack, "HIJACK"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
	}
	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.want {
			t.Errorf("LevelName(%v) = %q, expected %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}
