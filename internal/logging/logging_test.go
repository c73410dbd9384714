package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/robfig/cron/v3"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: slog.LevelInfo, JSON: true, Writer: &buf})

	logger.Debug("hidden")
	logger.Info("frame persisted", "seq", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "frame persisted" || rec["seq"] != float64(7) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: slog.LevelDebug, NoColor: true, Writer: &buf})

	logger.Debug("uvc: probing", "node", "/dev/video0")

	out := buf.String()
	if !strings.Contains(out, "uvc: probing") || !strings.Contains(out, "node=/dev/video0") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	var _ cron.Logger = &CronLogger{}

	l := &CronLogger{Logger: New(Options{Level: slog.LevelInfo, JSON: true, Writer: &buf})}
	l.Info("schedule", "entry", 1)
	l.Error(errors.New("boom"), "job failed", "entry", 1)

	out := buf.String()
	if strings.Contains(out, `"msg":"schedule"`) {
		t.Errorf("cron info chatter should be debug level: %q", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("error not attached: %q", out)
	}
}
