package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-webhelpers/internal/config"
)

func TestInitWriterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitWriter(&config.Config{AppName: "wh", Env: "test", LogLevel: "warn"}, &buf)
	if err != nil {
		t.Fatalf("InitWriter: %v", err)
	}

	log.InfoObj("dropped", "k", 1)
	log.WarnObj("kept", "request", map[string]any{"url": "https://x"})
	_ = Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["app"] != "wh" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field: %v", entry)
	}
	req, ok := entry["request"].(map[string]any)
	if !ok || req["url"] != "https://x" {
		t.Fatalf("object field not encoded: %v", entry["request"])
	}
}

func TestGlobalHelpersAfterInit(t *testing.T) {
	var buf bytes.Buffer
	if _, err := InitWriter(&config.Config{LogLevel: "debug"}, &buf); err != nil {
		t.Fatalf("InitWriter: %v", err)
	}
	DebugObj("debug line", "k", "v")
	ErrorObj("error line", "k", "v")
	if !strings.Contains(buf.String(), "debug line") || !strings.Contains(buf.String(), "error line") {
		t.Fatalf("global helpers did not log: %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "info" {
		t.Fatalf("parseLevel(verbose) = %s", got)
	}
}
