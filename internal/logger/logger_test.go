package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"WARN":     zapcore.WarnLevel,
		"verbose":  zapcore.DebugLevel,
		"fatal":    zapcore.DebugLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Fatalf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, InfoLevel, FormatJSON)

	log.Debugw("hidden")
	log.Infow("scan_finished", "imported", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["msg"] != "scan_finished" || entry["imported"] != float64(3) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, WarnLevel, FormatConsole)

	log.Infow("hidden")
	log.Warnw("rehash_failed", "username", "alice")

	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "rehash_failed") || strings.Contains(out, "hidden") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, InfoLevel, FormatJSON).Named("importer").Infow("scan_started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["logger"] != "importer" {
		t.Fatalf("expected logger=importer, got %v", entry)
	}
}

func TestNop(t *testing.T) {
	Nop().Errorw("ignored", "k", "v")
}
